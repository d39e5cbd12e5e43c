// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartStatsSweep runs RecomputeDerived every interval until the returned
// scheduler is shut down.
func (s *StatsService) StartStatsSweep(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			repaired, err := s.RecomputeDerived(ctx)
			if err != nil {
				s.logger.Error("stats sweep failed", zap.Error(err))
				return
			}
			if repaired > 0 {
				s.logger.Warn("stats sweep repaired derived columns", zap.Int("rows", repaired))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule stats sweep: %w", err)
	}

	sched.Start()
	s.logger.Info("stats sweep scheduled", zap.Duration("interval", interval))
	return sched, nil
}
