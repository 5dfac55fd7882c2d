package analytics

import (
	"math"

	"progresskit/core"
)

// Success-prediction weights. They sum to 1 so the raw score lands in
// [0, 1] when every input is in range.
const (
	weightWeekday  = 0.4
	weightTrend    = 0.3
	weightStreak   = 0.2
	weightActivity = 0.1

	// streakSaturation is the streak length past which the streak term
	// contributes its full weight.
	streakSaturation = 30.0
)

// PredictionInput bundles the signals the success score weighs.
type PredictionInput struct {
	// WeekdaySuccessRate is the completion rate for the relevant
	// weekday, in [0, 1].
	WeekdaySuccessRate float64 `json:"weekday_success_rate"`
	// TrendStrength is the signed slope strength; only a positive
	// trend contributes.
	TrendStrength float64 `json:"trend_strength"`
	// CurrentStreak is the live streak length in days.
	CurrentStreak int `json:"current_streak"`
	// RecentActivityScore summarizes the last few days, in [0, 1].
	RecentActivityScore float64 `json:"recent_activity_score"`
	// Samples is the number of observations behind the inputs; it
	// drives confidence.
	Samples int `json:"samples"`
}

// Prediction is a success likelihood with an attached confidence.
type Prediction struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"samples"`
}

// PredictSuccess combines weekday history, trend, streak and recent
// activity into a clamped [0, 1] score. Confidence grows with sample
// size and saturates, via 1 - 1/(1 + n/20).
func PredictSuccess(in PredictionInput) Prediction {
	streak := float64(in.CurrentStreak)
	if streak < 0 {
		streak = 0
	}

	score := weightWeekday*core.Clamp01(in.WeekdaySuccessRate) +
		weightTrend*math.Max(0, math.Min(1, in.TrendStrength)) +
		weightStreak*math.Min(1, streak/streakSaturation) +
		weightActivity*core.Clamp01(in.RecentActivityScore)

	n := in.Samples
	if n < 0 {
		n = 0
	}
	confidence := 1 - 1/(1+float64(n)/20)

	return Prediction{
		Score:      core.Clamp01(score),
		Confidence: confidence,
		Samples:    n,
	}
}
