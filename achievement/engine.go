package achievement

import (
	"log/slog"
	"time"

	"progresskit/core"
)

// Progress is the per-user, per-achievement evaluation record. Created
// lazily on first evaluation; terminal once unlocked.
type Progress struct {
	UserID           core.UserID `json:"user_id"`
	AchievementID    string      `json:"achievement_id"`
	Current          float64     `json:"current"`
	Target           float64     `json:"target"`
	Unlocked         bool        `json:"unlocked"`
	UnlockedAt       time.Time   `json:"unlocked_at,omitempty"`
	NotificationSent bool        `json:"notification_sent,omitempty"`
}

// Unlock describes one achievement crossing its target during an
// evaluation pass.
type Unlock struct {
	Definition Definition
	UnlockedAt time.Time
}

// Engine evaluates a catalog against user snapshots.
type Engine struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewEngine returns an engine over catalog. A nil logger falls back to
// slog's default.
func NewEngine(catalog *Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{catalog: catalog, logger: logger}
}

// Catalog exposes the engine's definition set.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// extract maps a criterion to its current value in the snapshot. An
// unknown criterion yields 0 and a diagnostic log line, never a crash.
func (e *Engine) extract(c Criterion, snap Snapshot) float64 {
	switch c {
	case CriterionStreakDays:
		return float64(snap.CurrentStreak)
	case CriterionHabitsCompleted:
		return float64(snap.State.HabitsCompleted)
	case CriterionTasksCompleted:
		return float64(snap.State.TasksCompleted)
	case CriterionGoalsAchieved:
		return float64(snap.State.GoalsAchieved)
	case CriterionTotalPoints:
		return float64(snap.State.TotalXP)
	case CriterionLevelReached:
		return float64(snap.State.Level)
	case CriterionDaysActive:
		return float64(snap.State.DaysActive)
	case CriterionAmountAccumulated:
		return snap.State.AmountAccumulated
	default:
		e.logger.Warn("unknown achievement criterion",
			"criterion", string(c),
			"user_id", string(snap.State.UserID))
		return 0
	}
}

// Evaluate runs one pass over the catalog for the user described by
// snap. existing maps achievement id to its stored progress; missing
// entries are created. It returns the updated progress records and the
// unlocks fired this pass. Unlock is a one-way transition: an already
// unlocked record is skipped before any mutation, so re-evaluating a
// satisfied criterion never re-fires.
func (e *Engine) Evaluate(snap Snapshot, existing map[string]Progress, ts time.Time) (map[string]Progress, []Unlock) {
	updated := make(map[string]Progress, e.catalog.Len())
	for id, p := range existing {
		updated[id] = p
	}

	var unlocks []Unlock
	for _, def := range e.catalog.All() {
		p, ok := updated[def.ID]
		if !ok {
			p = Progress{
				UserID:        snap.State.UserID,
				AchievementID: def.ID,
				Target:        def.Target,
			}
		}
		if p.Unlocked {
			continue
		}

		value := e.extract(def.Criterion, snap)
		// Progress is monotonically non-decreasing; a snapshot computed
		// from a stale replay must not rewind it.
		if value > p.Current {
			p.Current = value
		}
		p.Target = def.Target

		if p.Current >= def.Target {
			p.Unlocked = true
			p.UnlockedAt = ts
			unlocks = append(unlocks, Unlock{Definition: def, UnlockedAt: ts})
		}
		updated[def.ID] = p
	}
	return updated, unlocks
}
