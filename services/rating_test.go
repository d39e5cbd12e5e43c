package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingDelta(t *testing.T) {
	assert.Equal(t, 16.0, RatingDelta(true))
	assert.Equal(t, -16.0, RatingDelta(false))
}

func TestRunningAverage(t *testing.T) {
	avg := runningAverage(0, 1, 10)
	assert.InDelta(t, 10.0, avg, 1e-9)
	avg = runningAverage(avg, 2, 20)
	assert.InDelta(t, 15.0, avg, 1e-9)
	avg = runningAverage(avg, 3, 30)
	assert.InDelta(t, 20.0, avg, 1e-9)
	assert.Equal(t, 7.0, runningAverage(100, 0, 7))
}

func TestRatio(t *testing.T) {
	assert.Zero(t, ratio(0, 0))
	assert.InDelta(t, 0.5, ratio(1, 2), 1e-9)
}
