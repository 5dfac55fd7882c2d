package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventPointsAwarded       EventType = "points_awarded"
	EventStreakExtended      EventType = "streak_extended"
	EventStreakBroken        EventType = "streak_broken"
	EventLevelUp             EventType = "level_up"
	EventPrestige            EventType = "prestige"
	EventAchievementUnlocked EventType = "achievement_unlocked"
)

// Event represents an immutable domain event. Timestamps come from the
// injected clock, never time.Now, so replays are deterministic.
type Event struct {
	Type          EventType      `json:"type"`
	Time          time.Time      `json:"time"`
	UserID        UserID         `json:"user_id"`
	Source        ActionSource   `json:"source,omitempty"`
	Amount        int64          `json:"amount,omitempty"`
	Total         int64          `json:"total,omitempty"`
	Level         int            `json:"level,omitempty"`
	Title         string         `json:"title,omitempty"`
	Prestige      int            `json:"prestige,omitempty"`
	AchievementID string         `json:"achievement_id,omitempty"`
	Rarity        string         `json:"rarity,omitempty"`
	EntityID      EntityID       `json:"entity_id,omitempty"`
	Kind          EntityKind     `json:"kind,omitempty"`
	Streak        int            `json:"streak,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func NewPointsAwarded(ts time.Time, entry LedgerEntry, total int64) Event {
	return Event{
		Type:     EventPointsAwarded,
		Time:     ts,
		UserID:   entry.UserID,
		Source:   entry.Source,
		Amount:   entry.Amount,
		Total:    total,
		EntityID: entry.EntityID,
	}
}

func NewStreakExtended(ts time.Time, s StreakState) Event {
	return Event{
		Type:     EventStreakExtended,
		Time:     ts,
		UserID:   s.Key.UserID,
		EntityID: s.Key.EntityID,
		Kind:     s.Key.Kind,
		Streak:   s.Current,
	}
}

func NewStreakBroken(ts time.Time, s StreakState) Event {
	return Event{
		Type:     EventStreakBroken,
		Time:     ts,
		UserID:   s.Key.UserID,
		EntityID: s.Key.EntityID,
		Kind:     s.Key.Kind,
		Streak:   s.Current,
	}
}

func NewLevelUp(ts time.Time, user UserID, lvl int, title string) Event {
	return Event{Type: EventLevelUp, Time: ts, UserID: user, Level: lvl, Title: title}
}

func NewPrestige(ts time.Time, user UserID, prestige int) Event {
	return Event{Type: EventPrestige, Time: ts, UserID: user, Prestige: prestige}
}

func NewAchievementUnlocked(ts time.Time, user UserID, achievementID, rarity string) Event {
	return Event{
		Type:          EventAchievementUnlocked,
		Time:          ts,
		UserID:        user,
		AchievementID: achievementID,
		Rarity:        rarity,
	}
}
