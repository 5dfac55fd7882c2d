package analytics

import (
	"math"

	"progresskit/core"
)

// MaxIntensity is the top of the heatmap bucket scale.
const MaxIntensity = 4

// HeatmapCell is one day of the completion heatmap.
type HeatmapCell struct {
	Day       core.Day `json:"day"`
	Count     int      `json:"count"`
	Intensity int      `json:"intensity"`
}

// Heatmap buckets per-day completion counts over [from, to] into a
// fixed 0-4 intensity scale relative to target completions per day.
// Days absent from counts appear with intensity 0, never missing, so
// renderers can lay out a dense grid. A non-positive target is treated
// as 1.
func Heatmap(from, to core.Day, counts map[core.Day]int, target int) []HeatmapCell {
	if target <= 0 {
		target = 1
	}
	if to.Before(from) {
		return nil
	}

	cells := make([]HeatmapCell, 0, to.Sub(from)+1)
	for d := from; !to.Before(d); d = d.Next() {
		count := counts[d]
		if count < 0 {
			count = 0
		}
		cells = append(cells, HeatmapCell{
			Day:       d,
			Count:     count,
			Intensity: intensity(count, target),
		})
	}
	return cells
}

// intensity maps a completion count to a 0-4 bucket relative to target.
func intensity(count, target int) int {
	if count == 0 {
		return 0
	}
	ratio := float64(count) / float64(target)
	level := int(math.Ceil(ratio * MaxIntensity))
	if level < 1 {
		level = 1
	}
	if level > MaxIntensity {
		level = MaxIntensity
	}
	return level
}
