package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user in the progression domain.
type UserID string

// EntityID identifies a habit, task, goal, or challenge owned by a user.
type EntityID string

// EntityKind enumerates the kinds of entities a streak can attach to.
type EntityKind string

const (
	KindHabit     EntityKind = "habit"
	KindTask      EntityKind = "task"
	KindGoal      EntityKind = "goal"
	KindChallenge EntityKind = "challenge"
	// KindOverall is the per-user streak across all activity.
	KindOverall EntityKind = "overall"
)

// ActionSource tags the origin of a points award.
type ActionSource string

const (
	SourceHabitCompleted      ActionSource = "habit_completed"
	SourceTaskCompleted       ActionSource = "task_completed"
	SourceGoalAchieved        ActionSource = "goal_achieved"
	SourceChallengeCompleted  ActionSource = "challenge_completed"
	SourceStreakMilestone     ActionSource = "streak_milestone"
	SourceAchievementUnlocked ActionSource = "achievement_unlocked"
	SourceLevelUp             ActionSource = "level_up"
)

// Action is a single user action submitted for processing. The context
// fields (OnTime, ConsistencyRatio, Amount) are resolved by the caller;
// the engines never reach back into live object graphs.
type Action struct {
	UserID           UserID       `json:"user_id"`
	Source           ActionSource `json:"source"`
	EntityID         EntityID     `json:"entity_id,omitempty"`
	Kind             EntityKind   `json:"kind,omitempty"`
	OccurredAt       time.Time    `json:"occurred_at,omitempty"`
	OnTime           bool         `json:"on_time,omitempty"`
	ConsistencyRatio float64      `json:"consistency_ratio,omitempty"`
	// Amount carries a monetary value for financial goals; it feeds the
	// accumulated-amount achievement criterion and nothing else.
	Amount float64 `json:"amount,omitempty"`
}

// ProgressionState is a per-user snapshot of level, XP and lifetime totals.
// It is a value type; engines take it by value and return a modified copy,
// so callers never observe partial mutation.
type ProgressionState struct {
	UserID        UserID `json:"user_id"`
	TotalXP       int64  `json:"total_xp"`
	Level         int    `json:"level"`
	CurrentXP     int64  `json:"current_xp"`
	PrestigeLevel int    `json:"prestige_level"`
	Title         string `json:"title"`

	HabitsCompleted   int64   `json:"habits_completed"`
	TasksCompleted    int64   `json:"tasks_completed"`
	GoalsAchieved     int64   `json:"goals_achieved"`
	DaysActive        int64   `json:"days_active"`
	AmountAccumulated float64 `json:"amount_accumulated"`

	LastActiveDay Day       `json:"last_active_day"`
	Updated       time.Time `json:"updated"`
}

// NewProgressionState returns the level-1 starting state for a user.
func NewProgressionState(user UserID) ProgressionState {
	return ProgressionState{UserID: user, Level: 1, Title: "Novice"}
}

// LedgerEntry is an immutable, append-only record of a points award.
type LedgerEntry struct {
	ID         string       `json:"id"`
	UserID     UserID       `json:"user_id"`
	Source     ActionSource `json:"source"`
	Amount     int64        `json:"amount"`
	Multiplier float64      `json:"multiplier"`
	Bonus      int64        `json:"bonus"`
	EntityID   EntityID     `json:"entity_id,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// StreakKey addresses one streak: a user paired with an entity and its kind.
// The overall streak uses an empty EntityID and KindOverall.
type StreakKey struct {
	UserID   UserID     `json:"user_id"`
	EntityID EntityID   `json:"entity_id"`
	Kind     EntityKind `json:"kind"`
}

// OverallStreakKey returns the key of the user's cross-entity streak.
func OverallStreakKey(user UserID) StreakKey {
	return StreakKey{UserID: user, Kind: KindOverall}
}

// StreakState tracks consecutive-day activity for one StreakKey.
// Invariant: Current <= Longest; LastActivity is the latest day credited.
type StreakState struct {
	Key          StreakKey `json:"key"`
	Current      int       `json:"current"`
	Longest      int       `json:"longest"`
	LastActivity Day       `json:"last_activity"`
	StreakStart  Day       `json:"streak_start"`
}

// MetricSample is one externally supplied observation, for example a
// reading from a health data provider.
type MetricSample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// Clamp01 restricts v to the closed interval [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateSource checks that the action source is a known tag.
func ValidateSource(s ActionSource) error {
	switch s {
	case SourceHabitCompleted, SourceTaskCompleted, SourceGoalAchieved,
		SourceChallengeCompleted, SourceStreakMilestone,
		SourceAchievementUnlocked, SourceLevelUp:
		return nil
	default:
		return errors.New("unknown action source: " + string(s))
	}
}
