package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
)

func TestPearsonBounds(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7}
	y := []float64{2, 1, 4, 3, 6, 5, 8}

	r := Pearson(x, y)
	assert.GreaterOrEqual(t, r, -1.0)
	assert.LessOrEqual(t, r, 1.0)
}

func TestPearsonIdenticalSeries(t *testing.T) {
	x := []float64{0.1, 0.5, 0.9, 0.3, 0.7}
	assert.InDelta(t, 1.0, Pearson(x, x), 1e-9)
}

func TestPearsonNegatedSeries(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{-1, -2, -3, -4, -5}
	assert.InDelta(t, -1.0, Pearson(x, y), 1e-9)
}

func TestPearsonDegenerateCases(t *testing.T) {
	constant := []float64{3, 3, 3, 3}
	varying := []float64{1, 2, 3, 4}

	assert.Equal(t, 0.0, Pearson(constant, varying), "zero variance yields 0")
	assert.Equal(t, 0.0, Pearson(varying, constant))
	assert.Equal(t, 0.0, Pearson([]float64{1}, []float64{2}), "n <= 1 yields 0")
	assert.Equal(t, 0.0, Pearson(nil, nil))
}

func TestCorrelateLowConfidenceFlag(t *testing.T) {
	short := make([]float64, MinimumSampleSize-1)
	long := make([]float64, MinimumSampleSize)
	for i := range long {
		long[i] = float64(i)
	}
	for i := range short {
		short[i] = float64(i * i)
	}

	assert.True(t, Correlate(short, short).LowConfidence)
	assert.False(t, Correlate(long, long).LowConfidence)
}

func TestCorrelateBuckets(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5}
	down := []float64{5, 4, 3, 2, 1}
	flat := []float64{2, 2, 2, 2, 2}

	c := Correlate(up, up)
	assert.Equal(t, DirectionPositive, c.Direction)
	assert.Equal(t, StrengthStrong, c.Strength)

	c = Correlate(up, down)
	assert.Equal(t, DirectionNegative, c.Direction)
	assert.Equal(t, StrengthStrong, c.Strength)

	c = Correlate(up, flat)
	assert.Equal(t, DirectionNone, c.Direction)
	assert.Equal(t, StrengthNegligible, c.Strength)

	assert.Greater(t, Correlate(make([]float64, 40), make([]float64, 40)).Confidence,
		Correlate(make([]float64, 5), make([]float64, 5)).Confidence)
}

func TestMatrixSymmetricAndCancellable(t *testing.T) {
	series := map[string][]float64{
		"a": {1, 2, 3, 4, 5},
		"b": {5, 4, 3, 2, 1},
		"c": {1, 1, 2, 2, 3},
	}

	m, err := Matrix(context.Background(), series)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m["a"]["a"].R, 1e-9)
	assert.Equal(t, m["a"]["b"], m["b"]["a"])
	assert.InDelta(t, -1.0, m["a"]["b"].R, 1e-9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Matrix(ctx, series)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeTrendDirections(t *testing.T) {
	up := AnalyzeTrend([]float64{0.1, 0.2, 0.35, 0.4, 0.6})
	assert.Equal(t, DirectionUp, up.Direction)
	assert.Greater(t, up.Strength, 0.9)
	assert.Greater(t, up.Prediction, 0.5)

	down := AnalyzeTrend([]float64{0.9, 0.7, 0.6, 0.4, 0.2})
	assert.Equal(t, DirectionDown, down.Direction)

	flat := AnalyzeTrend([]float64{0.5, 0.5, 0.5, 0.5})
	assert.Equal(t, DirectionFlat, flat.Direction)
	assert.Equal(t, 0.0, flat.Strength, "zero variance never yields NaN")
}

func TestAnalyzeTrendPredictionClamped(t *testing.T) {
	rising := AnalyzeTrend([]float64{0.6, 0.8, 1.0})
	assert.LessOrEqual(t, rising.Prediction, 1.0)

	falling := AnalyzeTrend([]float64{0.4, 0.2, 0.0})
	assert.GreaterOrEqual(t, falling.Prediction, 0.0)
}

func TestAnalyzeTrendSmallSamples(t *testing.T) {
	assert.Equal(t, DirectionFlat, AnalyzeTrend(nil).Direction)

	one := AnalyzeTrend([]float64{0.7})
	assert.Equal(t, DirectionFlat, one.Direction)
	assert.InDelta(t, 0.7, one.Prediction, 1e-9)
}

func day(y int, m time.Month, d int) core.Day {
	return core.Day{Year: y, Month: m, Date: d}
}

func TestHeatmapFillsMissingDays(t *testing.T) {
	from, to := day(2024, 3, 1), day(2024, 3, 7)
	counts := map[core.Day]int{
		day(2024, 3, 2): 1,
		day(2024, 3, 5): 4,
	}

	cells := Heatmap(from, to, counts, 4)
	require.Len(t, cells, 7)

	byDay := map[core.Day]HeatmapCell{}
	for i, c := range cells {
		byDay[c.Day] = c
		assert.Equal(t, from.AddDays(i), c.Day, "cells are contiguous")
	}

	assert.Equal(t, 0, byDay[day(2024, 3, 1)].Intensity, "missing day has intensity 0")
	assert.Equal(t, 1, byDay[day(2024, 3, 2)].Intensity)
	assert.Equal(t, 4, byDay[day(2024, 3, 5)].Intensity)
}

func TestHeatmapIntensityScale(t *testing.T) {
	cells := Heatmap(day(2024, 3, 1), day(2024, 3, 1), map[core.Day]int{day(2024, 3, 1): 99}, 4)
	require.Len(t, cells, 1)
	assert.Equal(t, MaxIntensity, cells[0].Intensity, "intensity is capped")

	cells = Heatmap(day(2024, 3, 1), day(2024, 3, 1), map[core.Day]int{day(2024, 3, 1): 1}, 0)
	assert.Equal(t, MaxIntensity, cells[0].Intensity, "non-positive target treated as 1")
}

func TestPredictSuccess(t *testing.T) {
	perfect := PredictSuccess(PredictionInput{
		WeekdaySuccessRate:  1,
		TrendStrength:       1,
		CurrentStreak:       30,
		RecentActivityScore: 1,
		Samples:             100,
	})
	assert.InDelta(t, 1.0, perfect.Score, 1e-9)

	empty := PredictSuccess(PredictionInput{})
	assert.Equal(t, 0.0, empty.Score)
	assert.Equal(t, 0.0, empty.Confidence)

	negTrend := PredictSuccess(PredictionInput{WeekdaySuccessRate: 0.5, TrendStrength: -0.8})
	assert.InDelta(t, 0.2, negTrend.Score, 1e-9, "negative trend contributes nothing")
}

func TestPredictConfidenceSaturates(t *testing.T) {
	prev := -1.0
	for _, n := range []int{0, 5, 20, 50, 200, 1000} {
		c := PredictSuccess(PredictionInput{Samples: n}).Confidence
		assert.Greater(t, c, prev, "samples %d", n)
		assert.Less(t, c, 1.0)
		prev = c
	}
	assert.InDelta(t, 0.5, PredictSuccess(PredictionInput{Samples: 20}).Confidence, 1e-9)
}

func TestSeriesFill(t *testing.T) {
	s := Series{
		{Day: day(2024, 1, 3), Value: 0.5},
		{Day: day(2024, 1, 1), Value: 1},
	}

	filled := s.Fill(day(2024, 1, 1), day(2024, 1, 4))
	require.Len(t, filled, 4)
	assert.Equal(t, 1.0, filled[0].Value)
	assert.Equal(t, 0.0, filled[1].Value)
	assert.Equal(t, 0.5, filled[2].Value)
	assert.Equal(t, 0.0, filled[3].Value)
}

func TestEngagementMetrics(t *testing.T) {
	m := NewEngagementMetrics()
	base := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	m.OnEvent(core.Event{Type: core.EventPointsAwarded, UserID: "alice", Source: core.SourceHabitCompleted, Amount: 10, Time: base})
	m.OnEvent(core.Event{Type: core.EventPointsAwarded, UserID: "bob", Source: core.SourceHabitCompleted, Amount: 20, Time: base})
	m.OnEvent(core.Event{Type: core.EventPointsAwarded, UserID: "alice", Source: core.SourceTaskCompleted, Amount: 15, Time: base.AddDate(0, 0, 1)})
	m.OnEvent(core.Event{Type: core.EventAchievementUnlocked, UserID: "alice", Rarity: "rare", Time: base})
	m.OnEvent(core.Event{Type: core.EventLevelUp, UserID: "alice", Level: 2, Time: base})
	m.OnEvent(core.Event{Type: core.EventLevelUp, UserID: "alice", Level: 3, Time: base})

	assert.Equal(t, 2, m.ActiveUsers("2024-01-03"))
	assert.Equal(t, 1, m.ActiveUsers("2024-01-04"))
	assert.Equal(t, 2, m.WeeklyActiveUsers("2024-W01"))
	assert.Equal(t, 2, m.MonthlyActiveUsers("2024-01"))
	assert.Equal(t, int64(30), m.PointsAwarded("2024-01-03"))
	assert.Equal(t, int64(30), m.PointsBySource()[core.SourceHabitCompleted])
	assert.Equal(t, int64(1), m.UnlocksByRarity()["rare"])
	assert.Equal(t, map[int]int{3: 1}, m.LevelDistribution())
}
