// Package points converts tagged user actions into ledger entries. All
// multipliers are pure functions of their inputs so awards can be unit
// tested from a table of (source, level, streak, onTime, consistency)
// rows.
package points

import (
	"math"
	"time"

	"github.com/google/uuid"

	"progresskit/core"
)

// Config controls base amounts per action source and the consistency
// bonus ceiling.
type Config struct {
	BaseAmounts      map[core.ActionSource]int64
	ConsistencyBonus int64
}

// DefaultConfig returns the stock award table.
func DefaultConfig() Config {
	return Config{
		BaseAmounts: map[core.ActionSource]int64{
			core.SourceHabitCompleted:      10,
			core.SourceTaskCompleted:       15,
			core.SourceGoalAchieved:        50,
			core.SourceChallengeCompleted:  40,
			core.SourceStreakMilestone:     25,
			core.SourceAchievementUnlocked: 20,
			core.SourceLevelUp:             30,
		},
		ConsistencyBonus: 20,
	}
}

// Context is the snapshot of user state an award depends on.
type Context struct {
	Level            int
	Streak           int
	OnTime           bool
	ConsistencyRatio float64
}

// Engine computes point awards.
type Engine struct {
	cfg Config
}

// New returns an engine using cfg. A nil base-amount table falls back
// to the defaults.
func New(cfg Config) *Engine {
	if cfg.BaseAmounts == nil {
		cfg.BaseAmounts = DefaultConfig().BaseAmounts
	}
	if cfg.ConsistencyBonus <= 0 {
		cfg.ConsistencyBonus = DefaultConfig().ConsistencyBonus
	}
	return &Engine{cfg: cfg}
}

// LevelMultiplier scales linearly from 1.0 at level 1 to 1.7 at level
// 100 and above.
func LevelMultiplier(level int) float64 {
	if level <= 1 {
		return 1.0
	}
	if level >= 100 {
		return 1.7
	}
	return 1.0 + 0.7*float64(level-1)/99.0
}

// StreakMultiplier grows from 1.0 at streak 0 to 2.0 at streak 100,
// monotonically. The curve is steeper over the first month so early
// streaks feel rewarding.
func StreakMultiplier(streak int) float64 {
	switch {
	case streak <= 0:
		return 1.0
	case streak <= 30:
		return 1.0 + 0.02*float64(streak)
	case streak >= 100:
		return 2.0
	default:
		return 1.6 + 0.4*float64(streak-30)/70.0
	}
}

// TimeMultiplier rewards completing before the deadline.
func TimeMultiplier(onTime bool) float64 {
	if onTime {
		return 1.1
	}
	return 1.0
}

// Award converts an action into an immutable ledger entry. The amount
// is never negative; out-of-range inputs are clamped rather than
// rejected.
func (e *Engine) Award(action core.Action, ctx Context, ts time.Time) core.LedgerEntry {
	base := e.cfg.BaseAmounts[action.Source]
	if base < 0 {
		base = 0
	}

	mult := LevelMultiplier(ctx.Level) * StreakMultiplier(ctx.Streak) * TimeMultiplier(ctx.OnTime)
	amount := int64(math.Round(float64(base) * mult))

	bonus := int64(math.Round(float64(e.cfg.ConsistencyBonus) * core.Clamp01(ctx.ConsistencyRatio)))
	if total, err := core.AddSafe(amount, bonus); err == nil {
		amount = total
	} else {
		amount = math.MaxInt64
	}
	if amount < 0 {
		amount = 0
	}

	return core.LedgerEntry{
		ID:         uuid.NewString(),
		UserID:     action.UserID,
		Source:     action.Source,
		Amount:     amount,
		Multiplier: mult,
		Bonus:      bonus,
		EntityID:   action.EntityID,
		Timestamp:  ts,
	}
}
