package analytics

import (
	"fmt"
	"sync"
	"time"

	"progresskit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// BridgeHook fans one event stream out to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// EngagementMetrics aggregates domain events into engagement KPIs:
// active users by day, week and month, points awarded by day, unlocks
// by rarity and the live level distribution. It is safe for concurrent
// use and intended to be subscribed to the event bus.
type EngagementMetrics struct {
	mu sync.RWMutex

	dailyActive   map[string]map[core.UserID]struct{}
	weeklyActive  map[string]map[core.UserID]struct{}
	monthlyActive map[string]map[core.UserID]struct{}

	pointsByDay     map[string]int64
	pointsBySource  map[core.ActionSource]int64
	unlocksByRarity map[string]int64
	levelByUser     map[core.UserID]int
}

func NewEngagementMetrics() *EngagementMetrics {
	return &EngagementMetrics{
		dailyActive:     map[string]map[core.UserID]struct{}{},
		weeklyActive:    map[string]map[core.UserID]struct{}{},
		monthlyActive:   map[string]map[core.UserID]struct{}{},
		pointsByDay:     map[string]int64{},
		pointsBySource:  map[core.ActionSource]int64{},
		unlocksByRarity: map[string]int64{},
		levelByUser:     map[core.UserID]int{},
	}
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func weekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }

// OnEvent folds one event into the aggregates.
func (m *EngagementMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mark(m.dailyActive, dayKey(e.Time), e.UserID)
	mark(m.weeklyActive, weekKey(e.Time), e.UserID)
	mark(m.monthlyActive, monthKey(e.Time), e.UserID)

	switch e.Type {
	case core.EventPointsAwarded:
		m.pointsByDay[dayKey(e.Time)] += e.Amount
		m.pointsBySource[e.Source] += e.Amount
	case core.EventAchievementUnlocked:
		m.unlocksByRarity[e.Rarity]++
	case core.EventLevelUp:
		m.levelByUser[e.UserID] = e.Level
	case core.EventPrestige:
		m.levelByUser[e.UserID] = 1
	}
}

func mark(buckets map[string]map[core.UserID]struct{}, key string, user core.UserID) {
	set := buckets[key]
	if set == nil {
		set = map[core.UserID]struct{}{}
		buckets[key] = set
	}
	set[user] = struct{}{}
}

// ActiveUsers returns the number of distinct users seen on a day
// (YYYY-MM-DD).
func (m *EngagementMetrics) ActiveUsers(day string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dailyActive[day])
}

// WeeklyActiveUsers returns distinct users for an ISO week key
// (YYYY-Www).
func (m *EngagementMetrics) WeeklyActiveUsers(week string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.weeklyActive[week])
}

// MonthlyActiveUsers returns distinct users for a month key (YYYY-MM).
func (m *EngagementMetrics) MonthlyActiveUsers(month string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.monthlyActive[month])
}

// PointsAwarded returns the points total for a day key.
func (m *EngagementMetrics) PointsAwarded(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pointsByDay[day]
}

// PointsBySource returns a copy of the per-source award totals.
func (m *EngagementMetrics) PointsBySource() map[core.ActionSource]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[core.ActionSource]int64, len(m.pointsBySource))
	for k, v := range m.pointsBySource {
		out[k] = v
	}
	return out
}

// UnlocksByRarity returns a copy of the unlock counts per rarity.
func (m *EngagementMetrics) UnlocksByRarity() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.unlocksByRarity))
	for k, v := range m.unlocksByRarity {
		out[k] = v
	}
	return out
}

// LevelDistribution returns how many users sit at each level, from the
// level-up events observed so far.
func (m *EngagementMetrics) LevelDistribution() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[int]int{}
	for _, lvl := range m.levelByUser {
		out[lvl]++
	}
	return out
}
