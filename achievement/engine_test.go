package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
)

func testCatalog(t *testing.T, defs ...Definition) *Catalog {
	t.Helper()
	c, err := NewCatalog(defs)
	require.NoError(t, err)
	return c
}

func TestCatalogValidation(t *testing.T) {
	_, err := NewCatalog([]Definition{{ID: "", Criterion: CriterionStreakDays, Target: 7}})
	assert.Error(t, err, "empty id rejected")

	_, err = NewCatalog([]Definition{{ID: "a", Criterion: CriterionStreakDays, Target: 0}})
	assert.Error(t, err, "non-positive target rejected")

	_, err = NewCatalog([]Definition{
		{ID: "a", Criterion: CriterionStreakDays, Target: 7},
		{ID: "a", Criterion: CriterionStreakDays, Target: 14},
	})
	assert.Error(t, err, "duplicate id rejected")
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := DefaultCatalog()
	assert.Greater(t, c.Len(), 0)
	for _, d := range c.All() {
		assert.NoError(t, d.Validate())
	}
}

func TestCatalogVisibleFiltersLockedSecrets(t *testing.T) {
	c := testCatalog(t,
		Definition{ID: "open", Criterion: CriterionLevelReached, Target: 5},
		Definition{ID: "hidden", Criterion: CriterionLevelReached, Target: 10, Secret: true},
	)

	ids := func(defs []Definition) []string {
		out := make([]string, 0, len(defs))
		for _, d := range defs {
			out = append(out, d.ID)
		}
		return out
	}

	assert.Equal(t, []string{"open"}, ids(c.Visible(nil)))
	assert.Equal(t, []string{"open", "hidden"}, ids(c.Visible(map[string]bool{"hidden": true})))
}

// A 7 day streak achievement must stay locked through day 6 and unlock
// with exactly one event on day 7.
func TestSevenDayStreakUnlock(t *testing.T) {
	c := testCatalog(t, Definition{ID: "week", Criterion: CriterionStreakDays, Target: 7, Rarity: RarityCommon})
	e := NewEngine(c, nil)

	state := core.NewProgressionState("u1")
	progress := map[string]Progress{}
	ts := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	totalUnlocks := 0
	for day := 1; day <= 7; day++ {
		var unlocks []Unlock
		progress, unlocks = e.Evaluate(Snapshot{State: state, CurrentStreak: day}, progress, ts)
		totalUnlocks += len(unlocks)

		if day < 7 {
			assert.False(t, progress["week"].Unlocked, "day %d", day)
		} else {
			assert.True(t, progress["week"].Unlocked)
			require.Len(t, unlocks, 1)
			assert.Equal(t, "week", unlocks[0].Definition.ID)
			assert.Equal(t, ts, progress["week"].UnlockedAt)
		}
		ts = ts.AddDate(0, 0, 1)
	}
	assert.Equal(t, 1, totalUnlocks)
}

// Evaluating the same satisfied criterion twice fires exactly one
// unlock in total.
func TestSingleFire(t *testing.T) {
	c := testCatalog(t, Definition{ID: "ten", Criterion: CriterionLevelReached, Target: 10})
	e := NewEngine(c, nil)

	state := core.NewProgressionState("u1")
	state.Level = 12
	snap := Snapshot{State: state}

	progress, unlocks := e.Evaluate(snap, nil, time.Now())
	require.Len(t, unlocks, 1)
	firstAt := progress["ten"].UnlockedAt

	progress, unlocks = e.Evaluate(snap, progress, time.Now().Add(time.Hour))
	assert.Empty(t, unlocks)
	assert.Equal(t, firstAt, progress["ten"].UnlockedAt, "unlock timestamp is terminal")
}

func TestProgressMonotonic(t *testing.T) {
	c := testCatalog(t, Definition{ID: "fifty", Criterion: CriterionHabitsCompleted, Target: 50})
	e := NewEngine(c, nil)

	state := core.NewProgressionState("u1")
	state.HabitsCompleted = 30
	progress, _ := e.Evaluate(Snapshot{State: state}, nil, time.Now())
	assert.Equal(t, 30.0, progress["fifty"].Current)

	// A stale replay with a lower count must not rewind progress.
	state.HabitsCompleted = 20
	progress, _ = e.Evaluate(Snapshot{State: state}, progress, time.Now())
	assert.Equal(t, 30.0, progress["fifty"].Current)
}

func TestUnknownCriterionYieldsZero(t *testing.T) {
	c := testCatalog(t, Definition{ID: "odd", Criterion: Criterion("quantum_flux"), Target: 1})
	e := NewEngine(c, nil)

	progress, unlocks := e.Evaluate(Snapshot{State: core.NewProgressionState("u1")}, nil, time.Now())
	assert.Empty(t, unlocks)
	assert.Equal(t, 0.0, progress["odd"].Current)
	assert.False(t, progress["odd"].Unlocked)
}

func TestExtractorCoverage(t *testing.T) {
	state := core.NewProgressionState("u1")
	state.HabitsCompleted = 3
	state.TasksCompleted = 4
	state.GoalsAchieved = 5
	state.TotalXP = 600
	state.Level = 7
	state.DaysActive = 8
	state.AmountAccumulated = 99.5
	snap := Snapshot{State: state, CurrentStreak: 2, LongestStreak: 9}

	e := NewEngine(testCatalog(t), nil)
	assert.Equal(t, 2.0, e.extract(CriterionStreakDays, snap))
	assert.Equal(t, 3.0, e.extract(CriterionHabitsCompleted, snap))
	assert.Equal(t, 4.0, e.extract(CriterionTasksCompleted, snap))
	assert.Equal(t, 5.0, e.extract(CriterionGoalsAchieved, snap))
	assert.Equal(t, 600.0, e.extract(CriterionTotalPoints, snap))
	assert.Equal(t, 7.0, e.extract(CriterionLevelReached, snap))
	assert.Equal(t, 8.0, e.extract(CriterionDaysActive, snap))
	assert.Equal(t, 99.5, e.extract(CriterionAmountAccumulated, snap))
}
