// Package outbox decorates a persistence gateway with an explicit
// queue of pending outbound changes. A sync layer drains the queue to
// learn what to push upstream; the progression engines stay unaware
// that sync exists.
package outbox

import (
	"context"
	"sync"
	"time"

	"progresskit/achievement"
	"progresskit/core"
	"progresskit/engine"
)

// ChangeKind names the record type a change touched.
type ChangeKind string

const (
	ChangeState               ChangeKind = "state"
	ChangeStreak              ChangeKind = "streak"
	ChangeAchievementProgress ChangeKind = "achievement_progress"
	ChangeLedger              ChangeKind = "ledger"
)

// Change is one successfully persisted write awaiting outbound sync.
type Change struct {
	Kind   ChangeKind  `json:"kind"`
	UserID core.UserID `json:"user_id"`
	Key    string      `json:"key"`
	Time   time.Time   `json:"time"`
}

// Gateway wraps an inner gateway and records a change for every write
// that the inner gateway accepted. Reads pass through untouched.
type Gateway struct {
	engine.PersistenceGateway

	mu      sync.Mutex
	pending []Change
}

// Wrap decorates inner with change tracking.
func Wrap(inner engine.PersistenceGateway) *Gateway {
	return &Gateway{PersistenceGateway: inner}
}

func (g *Gateway) record(kind ChangeKind, user core.UserID, key string) {
	g.mu.Lock()
	g.pending = append(g.pending, Change{Kind: kind, UserID: user, Key: key, Time: time.Now()})
	g.mu.Unlock()
}

func (g *Gateway) SaveState(ctx context.Context, state core.ProgressionState) error {
	if err := g.PersistenceGateway.SaveState(ctx, state); err != nil {
		return err
	}
	g.record(ChangeState, state.UserID, string(state.UserID))
	return nil
}

func (g *Gateway) SaveStreak(ctx context.Context, state core.StreakState) error {
	if err := g.PersistenceGateway.SaveStreak(ctx, state); err != nil {
		return err
	}
	g.record(ChangeStreak, state.Key.UserID, string(state.Key.EntityID)+"|"+string(state.Key.Kind))
	return nil
}

func (g *Gateway) SaveAchievementProgress(ctx context.Context, progress achievement.Progress) error {
	if err := g.PersistenceGateway.SaveAchievementProgress(ctx, progress); err != nil {
		return err
	}
	g.record(ChangeAchievementProgress, progress.UserID, progress.AchievementID)
	return nil
}

func (g *Gateway) AppendLedger(ctx context.Context, entry core.LedgerEntry) error {
	if err := g.PersistenceGateway.AppendLedger(ctx, entry); err != nil {
		return err
	}
	g.record(ChangeLedger, entry.UserID, entry.ID)
	return nil
}

// Pending returns a copy of the queued changes without clearing them.
func (g *Gateway) Pending() []Change {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Change, len(g.pending))
	copy(out, g.pending)
	return out
}

// Drain returns the queued changes and clears the queue. The caller
// owns re-queueing anything it fails to push.
func (g *Gateway) Drain() []Change {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.pending
	g.pending = nil
	return out
}
