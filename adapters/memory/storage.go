// Package memory is a concurrent in-memory PersistenceGateway, the
// default for tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	"progresskit/achievement"
	"progresskit/core"
)

// Store keeps every progression record per user behind one mutex, so a
// user's records are internally consistent without external locking.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu       sync.Mutex
	state    *core.ProgressionState
	streaks  map[core.StreakKey]core.StreakState
	progress map[string]achievement.Progress
	ledger   []core.LedgerEntry
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{
		streaks:  map[core.StreakKey]core.StreakState{},
		progress: map[string]achievement.Progress{},
	}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) LoadState(_ context.Context, user core.UserID) (core.ProgressionState, bool, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.state == nil {
		return core.ProgressionState{}, false, nil
	}
	return *rec.state, true, nil
}

func (s *Store) SaveState(_ context.Context, state core.ProgressionState) error {
	rec := s.getOrCreate(state.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.state = &state
	return nil
}

func (s *Store) LoadStreak(_ context.Context, key core.StreakKey) (core.StreakState, bool, error) {
	rec := s.getOrCreate(key.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	st, ok := rec.streaks[key]
	return st, ok, nil
}

func (s *Store) SaveStreak(_ context.Context, state core.StreakState) error {
	rec := s.getOrCreate(state.Key.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.streaks[state.Key] = state
	return nil
}

func (s *Store) ListStreaks(_ context.Context, user core.UserID) ([]core.StreakState, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]core.StreakState, 0, len(rec.streaks))
	for _, st := range rec.streaks {
		out = append(out, st)
	}
	return out, nil
}

func (s *Store) LoadAchievementProgress(_ context.Context, user core.UserID) (map[string]achievement.Progress, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make(map[string]achievement.Progress, len(rec.progress))
	for id, p := range rec.progress {
		out[id] = p
	}
	return out, nil
}

func (s *Store) SaveAchievementProgress(_ context.Context, progress achievement.Progress) error {
	rec := s.getOrCreate(progress.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.progress[progress.AchievementID] = progress
	return nil
}

func (s *Store) AppendLedger(_ context.Context, entry core.LedgerEntry) error {
	rec := s.getOrCreate(entry.UserID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.ledger = append(rec.ledger, entry)
	return nil
}

func (s *Store) ListLedger(_ context.Context, user core.UserID, limit int) ([]core.LedgerEntry, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	n := len(rec.ledger)
	if limit <= 0 || limit > n {
		limit = n
	}
	// Most recent first.
	out := make([]core.LedgerEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, rec.ledger[i])
	}
	return out, nil
}
