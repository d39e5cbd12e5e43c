package services

const (
	// RatingKFactor scales every rating change.
	RatingKFactor = 32.0
	// ExpectedScore is the expected result used for every player.
	// Opponent ratings are not taken into account.
	ExpectedScore = 0.5
)

// RatingDelta returns the skill rating change for one match: K × (S − E).
func RatingDelta(won bool) float64 {
	actual := 0.0
	if won {
		actual = 1.0
	}
	return RatingKFactor * (actual - ExpectedScore)
}

// runningAverage folds value into an average that now covers n samples.
func runningAverage(avg float64, n int, value float64) float64 {
	if n <= 0 {
		return value
	}
	return (avg*float64(n-1) + value) / float64(n)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
