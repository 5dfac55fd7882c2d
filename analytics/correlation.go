package analytics

import (
	"context"
	"math"
)

// MinimumSampleSize is the smallest pairing reported with full
// confidence. Smaller samples are still computed, flagged low
// confidence rather than suppressed.
const MinimumSampleSize = 14

// Pearson computes the correlation coefficient of two equal-length
// series. It returns 0 when either variance is zero or n <= 1, never
// NaN. Unequal lengths are truncated to the shorter series.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n <= 1 {
		return 0
	}

	var sx, sy, sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		sx += x[i]
		sy += y[i]
		sxy += x[i] * y[i]
		sxx += x[i] * x[i]
		syy += y[i] * y[i]
	}

	fn := float64(n)
	den := (fn*sxx - sx*sx) * (fn*syy - sy*sy)
	if den <= 0 {
		return 0
	}
	r := (fn*sxy - sx*sy) / math.Sqrt(den)

	// Floating point can push |r| a hair past 1.
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// Strength buckets a coefficient's magnitude for display.
type Strength string

const (
	StrengthNegligible Strength = "negligible"
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
)

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNone     Direction = "none"
)

// Correlation is a derived, on-demand result; it is never persisted as
// source of truth.
type Correlation struct {
	R             float64   `json:"r"`
	Strength      Strength  `json:"strength"`
	Direction     Direction `json:"direction"`
	Confidence    float64   `json:"confidence"`
	Samples       int       `json:"samples"`
	LowConfidence bool      `json:"low_confidence"`
}

func strengthOf(r float64) Strength {
	abs := math.Abs(r)
	switch {
	case abs < 0.2:
		return StrengthNegligible
	case abs < 0.4:
		return StrengthWeak
	case abs < 0.7:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}

// Correlate computes the Pearson coefficient of x and y and flags the
// result when the sample is below MinimumSampleSize.
func Correlate(x, y []float64) Correlation {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	r := Pearson(x, y)

	dir := DirectionNone
	if r > 0 {
		dir = DirectionPositive
	} else if r < 0 {
		dir = DirectionNegative
	}

	return Correlation{
		R:             r,
		Strength:      strengthOf(r),
		Direction:     dir,
		Confidence:    1 - 1/(1+float64(n)/20),
		Samples:       n,
		LowConfidence: n < MinimumSampleSize,
	}
}

// Matrix computes pairwise correlations for a set of named series. It
// is the one analytics call that can run long, so it honors ctx
// cancellation between pairs and returns what it has computed so far
// along with the context error.
func Matrix(ctx context.Context, series map[string][]float64) (map[string]map[string]Correlation, error) {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}

	out := make(map[string]map[string]Correlation, len(names))
	for _, a := range names {
		out[a] = make(map[string]Correlation, len(names))
	}

	for i, a := range names {
		for _, b := range names[i:] {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			c := Correlate(series[a], series[b])
			out[a][b] = c
			out[b][a] = c
		}
	}
	return out, nil
}
