package points

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
)

func TestLevelMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, LevelMultiplier(1))
	assert.Equal(t, 1.0, LevelMultiplier(0))
	assert.Equal(t, 1.0, LevelMultiplier(-5))
	assert.Equal(t, 1.7, LevelMultiplier(100))
	assert.Equal(t, 1.7, LevelMultiplier(250))

	// Strictly increasing across the clamp-free range.
	prev := LevelMultiplier(1)
	for lvl := 2; lvl <= 100; lvl++ {
		cur := LevelMultiplier(lvl)
		assert.Greater(t, cur, prev, "level %d", lvl)
		prev = cur
	}
}

func TestStreakMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, StreakMultiplier(0))
	assert.Equal(t, 1.0, StreakMultiplier(-1))
	assert.InDelta(t, 1.12, StreakMultiplier(6), 1e-9)
	assert.InDelta(t, 1.6, StreakMultiplier(30), 1e-9)
	assert.Equal(t, 2.0, StreakMultiplier(100))
	assert.Equal(t, 2.0, StreakMultiplier(365))

	// Monotonic non-decreasing over the whole range.
	prev := StreakMultiplier(0)
	for s := 1; s <= 120; s++ {
		cur := StreakMultiplier(s)
		assert.GreaterOrEqual(t, cur, prev, "streak %d", s)
		prev = cur
	}
}

func TestAwardTable(t *testing.T) {
	e := New(DefaultConfig())
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		source core.ActionSource
		ctx    Context
		want   int64
	}{
		{
			name:   "level one no modifiers",
			source: core.SourceHabitCompleted,
			ctx:    Context{Level: 1},
			want:   10,
		},
		{
			name:   "task on time",
			source: core.SourceTaskCompleted,
			ctx:    Context{Level: 1, OnTime: true},
			want:   int64(math.Round(15 * 1.1)),
		},
		{
			name:   "goal with full consistency",
			source: core.SourceGoalAchieved,
			ctx:    Context{Level: 1, ConsistencyRatio: 1.0},
			want:   50 + 20,
		},
		{
			name:   "negative consistency clamped",
			source: core.SourceHabitCompleted,
			ctx:    Context{Level: 1, ConsistencyRatio: -0.5},
			want:   10,
		},
		{
			name:   "consistency above one clamped",
			source: core.SourceHabitCompleted,
			ctx:    Context{Level: 1, ConsistencyRatio: 3.0},
			want:   10 + 20,
		},
		{
			name:   "unknown source awards zero",
			source: core.ActionSource("mystery"),
			ctx:    Context{Level: 10, Streak: 10, OnTime: true},
			want:   0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := e.Award(core.Action{UserID: "u1", Source: tc.source}, tc.ctx, ts)
			assert.Equal(t, tc.want, entry.Amount)
			assert.GreaterOrEqual(t, entry.Amount, int64(0))
			assert.NotEmpty(t, entry.ID)
			assert.Equal(t, ts, entry.Timestamp)
		})
	}
}

// A level 4 user on a 6 day streak completing a habit on time must
// reproduce round(10 * levelMult(4) * 1.12 * 1.1) from the documented
// formulas, with no hidden state.
func TestAwardDeterministicScenario(t *testing.T) {
	e := New(DefaultConfig())
	ctx := Context{Level: 4, Streak: 6, OnTime: true}

	want := int64(math.Round(10 * LevelMultiplier(4) * 1.12 * 1.1))

	first := e.Award(core.Action{UserID: "u1", Source: core.SourceHabitCompleted}, ctx, time.Now())
	second := e.Award(core.Action{UserID: "u1", Source: core.SourceHabitCompleted}, ctx, time.Now())

	require.Equal(t, want, first.Amount)
	require.Equal(t, first.Amount, second.Amount)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAwardRecordsMultiplierAndBonus(t *testing.T) {
	e := New(DefaultConfig())
	entry := e.Award(
		core.Action{UserID: "u1", Source: core.SourceHabitCompleted, EntityID: "habit-7"},
		Context{Level: 4, Streak: 6, OnTime: true, ConsistencyRatio: 0.5},
		time.Now(),
	)

	assert.InDelta(t, LevelMultiplier(4)*1.12*1.1, entry.Multiplier, 1e-9)
	assert.Equal(t, int64(10), entry.Bonus)
	assert.Equal(t, core.EntityID("habit-7"), entry.EntityID)
}
