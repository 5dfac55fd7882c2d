package analytics

import (
	"math"

	"progresskit/core"
)

// Direction classifies the sign of a fitted slope.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Trend is the result of fitting a simple linear regression to a
// period -> completion-rate series.
type Trend struct {
	Slope      float64   `json:"slope"`
	Direction  Direction `json:"direction"`
	Strength   float64   `json:"strength"`
	Prediction float64   `json:"prediction"`
	Samples    int       `json:"samples"`
}

// AnalyzeTrend fits y = a + b*i over the index of values. Direction is
// the sign of the slope, strength is |r| of index vs value, and
// prediction is the extrapolated next-period value clamped to [0, 1].
// Fewer than two samples yield a flat trend predicting the last value.
func AnalyzeTrend(values []float64) Trend {
	n := len(values)
	if n == 0 {
		return Trend{Direction: DirectionFlat}
	}
	if n == 1 {
		return Trend{
			Direction:  DirectionFlat,
			Prediction: core.Clamp01(values[0]),
			Samples:    1,
		}
	}

	idx := make([]float64, n)
	for i := range idx {
		idx[i] = float64(i)
	}

	slope, intercept := linearFit(idx, values)
	r := Pearson(idx, values)

	dir := DirectionFlat
	const eps = 1e-9
	switch {
	case slope > eps:
		dir = DirectionUp
	case slope < -eps:
		dir = DirectionDown
	}

	next := intercept + slope*float64(n)
	return Trend{
		Slope:      slope,
		Direction:  dir,
		Strength:   math.Abs(r),
		Prediction: core.Clamp01(next),
		Samples:    n,
	}
}

// linearFit returns the least-squares slope and intercept of y over x.
// Zero variance in x yields a zero slope.
func linearFit(x, y []float64) (slope, intercept float64) {
	n := float64(len(x))
	if n == 0 {
		return 0, 0
	}
	mx, my := mean(x), mean(y)

	var num, den float64
	for i := range x {
		dx := x[i] - mx
		num += dx * (y[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return 0, my
	}
	slope = num / den
	intercept = my - slope*mx
	return slope, intercept
}
