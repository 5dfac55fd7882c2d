// Package achievement evaluates per-user progress against a catalog of
// achievement definitions and unlocks each one exactly once.
package achievement

import (
	"fmt"

	"progresskit/core"
)

// Criterion identifies the measurable condition an achievement tracks.
// Adding a criterion means adding a constant and an extractor case in
// extract, nothing else.
type Criterion string

const (
	CriterionStreakDays        Criterion = "streak_days"
	CriterionHabitsCompleted   Criterion = "habits_completed"
	CriterionTasksCompleted    Criterion = "tasks_completed"
	CriterionGoalsAchieved     Criterion = "goals_achieved"
	CriterionTotalPoints       Criterion = "total_points"
	CriterionLevelReached      Criterion = "level_reached"
	CriterionDaysActive        Criterion = "days_active"
	CriterionAmountAccumulated Criterion = "amount_accumulated"
)

// Rarity grades how hard an achievement is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Definition is one immutable catalog entry.
type Definition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Criterion   Criterion `json:"criterion"`
	Target      float64   `json:"target"`
	Rarity      Rarity    `json:"rarity"`
	Secret      bool      `json:"secret,omitempty"`
	RewardXP    int64     `json:"reward_xp,omitempty"`
}

// Validate rejects malformed definitions at load time so evaluation
// never has to.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("achievement definition with empty id")
	}
	if d.Target <= 0 {
		return fmt.Errorf("achievement %q: target must be positive, got %v", d.ID, d.Target)
	}
	if d.Criterion == "" {
		return fmt.Errorf("achievement %q: missing criterion", d.ID)
	}
	if d.RewardXP < 0 {
		return fmt.Errorf("achievement %q: negative reward", d.ID)
	}
	return nil
}

// Catalog is the read-only set of definitions loaded at startup.
type Catalog struct {
	defs []Definition
	byID map[string]Definition
}

// NewCatalog validates and indexes defs. Duplicate ids are rejected.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id %q", d.ID)
		}
		c.byID[d.ID] = d
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// Get looks up a definition by id.
func (c *Catalog) Get(id string) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns every definition, secrets included.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Visible returns definitions suitable for display enumeration. Secret
// achievements are included only once unlocked for the user.
func (c *Catalog) Visible(unlocked map[string]bool) []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, d := range c.defs {
		if d.Secret && !unlocked[d.ID] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }

// DefaultCatalog returns the built-in achievement set.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Definition{
		{ID: "first-steps", Name: "First Steps", Description: "Complete your first habit", Criterion: CriterionHabitsCompleted, Target: 1, Rarity: RarityCommon, RewardXP: 25},
		{ID: "habit-builder", Name: "Habit Builder", Description: "Complete 50 habits", Criterion: CriterionHabitsCompleted, Target: 50, Rarity: RarityRare, RewardXP: 150},
		{ID: "habit-machine", Name: "Habit Machine", Description: "Complete 500 habits", Criterion: CriterionHabitsCompleted, Target: 500, Rarity: RarityEpic, RewardXP: 600},
		{ID: "task-tamer", Name: "Task Tamer", Description: "Complete 25 tasks", Criterion: CriterionTasksCompleted, Target: 25, Rarity: RarityCommon, RewardXP: 100},
		{ID: "goal-getter", Name: "Goal Getter", Description: "Achieve 5 goals", Criterion: CriterionGoalsAchieved, Target: 5, Rarity: RarityRare, RewardXP: 200},
		{ID: "week-streak", Name: "One Week Strong", Description: "Hold a 7 day streak", Criterion: CriterionStreakDays, Target: 7, Rarity: RarityCommon, RewardXP: 75},
		{ID: "month-streak", Name: "Unstoppable", Description: "Hold a 30 day streak", Criterion: CriterionStreakDays, Target: 30, Rarity: RarityEpic, RewardXP: 400},
		{ID: "century-streak", Name: "Centurion", Description: "Hold a 100 day streak", Criterion: CriterionStreakDays, Target: 100, Rarity: RarityLegendary, RewardXP: 1500},
		{ID: "point-collector", Name: "Point Collector", Description: "Earn 10,000 points", Criterion: CriterionTotalPoints, Target: 10_000, Rarity: RarityRare, RewardXP: 250},
		{ID: "level-ten", Name: "Double Digits", Description: "Reach level 10", Criterion: CriterionLevelReached, Target: 10, Rarity: RarityCommon, RewardXP: 100},
		{ID: "level-fifty", Name: "Halfway There", Description: "Reach level 50", Criterion: CriterionLevelReached, Target: 50, Rarity: RarityEpic, RewardXP: 750},
		{ID: "regular", Name: "Regular", Description: "Stay active for 30 days", Criterion: CriterionDaysActive, Target: 30, Rarity: RarityRare, RewardXP: 200},
		{ID: "saver", Name: "Saver", Description: "Accumulate 1,000 toward financial goals", Criterion: CriterionAmountAccumulated, Target: 1000, Rarity: RarityRare, Secret: true, RewardXP: 300},
	})
	if err != nil {
		panic(err) // the built-in catalog is covered by tests
	}
	return c
}

// Snapshot is the fully resolved user state a single evaluation pass
// reads. Engines never reach into live storage during evaluation.
type Snapshot struct {
	State         core.ProgressionState
	CurrentStreak int
	LongestStreak int
}
