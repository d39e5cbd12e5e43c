// Package metrics exposes Prometheus collectors for the matchmaking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "winter_dragon"

var (
	TeamsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matchmaking",
		Name:      "balanced_teams_total",
		Help:      "Balanced team splits returned, by search mode.",
	}, []string{"mode"})

	CandidatesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matchmaking",
		Name:      "candidates_evaluated_total",
		Help:      "Candidate partitions scored by the balance evaluator.",
	}, []string{"mode"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "matchmaking",
		Name:      "search_duration_seconds",
		Help:      "Time spent searching partitions.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"mode"})

	ResultsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "results",
		Name:      "recorded_total",
		Help:      "Match results committed.",
	})

	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Failed engine operations by operation and error kind.",
	}, []string{"operation", "kind"})

	StatsRepaired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stats",
		Name:      "rows_repaired_total",
		Help:      "Derived statistic rows rewritten by the integrity sweep.",
	})
)
