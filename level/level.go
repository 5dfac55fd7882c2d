// Package level accumulates XP into a discrete level, title and
// prestige state. The progression curve is xpRequired(n) = floor(100 *
// n^1.5), so each level costs strictly more than the last and the
// level-up loop always terminates.
package level

import (
	"errors"
	"math"

	"progresskit/core"
)

const (
	// BaseXP anchors the progression curve.
	BaseXP = 100

	// PrestigeMinLevel is the lowest level at which prestige may be
	// triggered. Prestige is explicit, never automatic.
	PrestigeMinLevel = 50

	// MaxLevel caps the level counter. XP past the cap still counts
	// toward TotalXP.
	MaxLevel = 999
)

// ErrPrestigeUnavailable is returned when prestige is requested below
// PrestigeMinLevel.
var ErrPrestigeUnavailable = errors.New("prestige requires level 50")

// LevelUpEvent records one level gained during an AddXP call.
type LevelUpEvent struct {
	Level int
	Title string
}

// XPRequired returns the XP needed to go from level-1 to level.
// Strictly increasing for level >= 1.
func XPRequired(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(math.Floor(BaseXP * math.Pow(float64(level), 1.5)))
}

// titleBands maps the lowest level of each band to its title. Bands are
// checked in descending order.
var titleBands = []struct {
	min   int
	title string
}{
	{90, "Immortal"},
	{75, "Legend"},
	{60, "Grandmaster"},
	{50, "Master"},
	{40, "Veteran"},
	{30, "Expert"},
	{20, "Adept"},
	{10, "Apprentice"},
	{1, "Novice"},
}

// TitleForLevel returns the display title for a level.
func TitleForLevel(level int) string {
	for _, band := range titleBands {
		if level >= band.min {
			return band.title
		}
	}
	return "Novice"
}

// AddXP credits amount XP to state and resolves any level-ups,
// including multi-level jumps from a single large award. Negative
// amounts are clamped to zero. The input state is not mutated.
func AddXP(state core.ProgressionState, amount int64) (core.ProgressionState, []LevelUpEvent) {
	if amount < 0 {
		amount = 0
	}
	if state.Level < 1 {
		state.Level = 1
	}

	if total, err := core.AddSafe(state.TotalXP, amount); err == nil {
		state.TotalXP = total
	} else {
		state.TotalXP = math.MaxInt64
	}
	if cur, err := core.AddSafe(state.CurrentXP, amount); err == nil {
		state.CurrentXP = cur
	} else {
		state.CurrentXP = math.MaxInt64
	}

	var events []LevelUpEvent
	for state.Level < MaxLevel {
		need := XPRequired(state.Level + 1)
		if state.CurrentXP < need {
			break
		}
		state.CurrentXP -= need
		state.Level++
		state.Title = TitleForLevel(state.Level)
		events = append(events, LevelUpEvent{Level: state.Level, Title: state.Title})
	}
	if state.Title == "" {
		state.Title = TitleForLevel(state.Level)
	}
	return state, events
}

// Prestige resets the level counter while retaining TotalXP and
// lifetime totals. Only available at PrestigeMinLevel or above.
func Prestige(state core.ProgressionState) (core.ProgressionState, error) {
	if state.Level < PrestigeMinLevel {
		return state, ErrPrestigeUnavailable
	}
	state.Level = 1
	state.CurrentXP = 0
	state.PrestigeLevel++
	state.Title = TitleForLevel(1)
	return state, nil
}

// ProgressToNextLevel returns the fraction of the way to the next
// level, in [0, 1).
func ProgressToNextLevel(state core.ProgressionState) float64 {
	if state.Level < 1 {
		return 0
	}
	need := XPRequired(state.Level + 1)
	if need <= 0 {
		return 0
	}
	p := float64(state.CurrentXP) / float64(need)
	if p < 0 {
		return 0
	}
	if p >= 1 {
		// CurrentXP should have been consumed by AddXP; treat as just
		// shy of the boundary rather than reporting an impossible 1.0.
		return math.Nextafter(1, 0)
	}
	return p
}
