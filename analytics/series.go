// Package analytics computes trend, correlation, heatmap and
// success-prediction statistics over historical series. Every
// computation here is a pure function of its inputs: no engine-owned
// state, safe to run concurrently on disjoint data, and independent of
// the progression engines.
package analytics

import (
	"sort"

	"progresskit/core"
)

// Point is one observation of a daily metric.
type Point struct {
	Day   core.Day `json:"day"`
	Value float64  `json:"value"`
}

// Series is an ordered sequence of observations.
type Series []Point

// Values extracts the value column.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Sorted returns a copy ordered by day ascending.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// Fill expands s to cover every day in [from, to], inserting zero
// values for missing days. Duplicate days keep the last value.
func (s Series) Fill(from, to core.Day) Series {
	byDay := make(map[core.Day]float64, len(s))
	for _, p := range s {
		byDay[p.Day] = p.Value
	}
	var out Series
	for d := from; !to.Before(d); d = d.Next() {
		out = append(out, Point{Day: d, Value: byDay[d]})
	}
	return out
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}
