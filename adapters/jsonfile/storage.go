// Package jsonfile persists the entire progression dataset to a single
// JSON file. Suitable for demos and small deployments.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"progresskit/achievement"
	"progresskit/core"
)

// document is the on-disk layout: one record bundle per user.
type document struct {
	States   map[string]core.ProgressionState  `json:"states"`
	Streaks  map[string][]core.StreakState     `json:"streaks"`
	Progress map[string][]achievement.Progress `json:"progress"`
	Ledger   map[string][]core.LedgerEntry     `json:"ledger"`
}

func newDocument() document {
	return document{
		States:   map[string]core.ProgressionState{},
		Streaks:  map[string][]core.StreakState{},
		Progress: map[string][]achievement.Progress{},
		Ledger:   map[string][]core.LedgerEntry{},
	}
}

// Store implements engine.PersistenceGateway over one JSON file. Every
// write rewrites the file through a temp-file rename so a crash never
// leaves a half-written document.
type Store struct {
	path string
	mu   sync.Mutex
	doc  document
}

func New(path string) (*Store, error) {
	s := &Store{path: path, doc: newDocument()}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if doc.States == nil {
		doc = newDocument()
	}
	if doc.Streaks == nil {
		doc.Streaks = map[string][]core.StreakState{}
	}
	if doc.Progress == nil {
		doc.Progress = map[string][]achievement.Progress{}
	}
	if doc.Ledger == nil {
		doc.Ledger = map[string][]core.LedgerEntry{}
	}
	s.doc = doc
	return nil
}

func (s *Store) persist() error {
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) LoadState(_ context.Context, user core.UserID) (core.ProgressionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.doc.States[string(user)]
	return state, ok, nil
}

func (s *Store) SaveState(_ context.Context, state core.ProgressionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.States[string(state.UserID)] = state
	return s.persist()
}

func (s *Store) LoadStreak(_ context.Context, key core.StreakKey) (core.StreakState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.doc.Streaks[string(key.UserID)] {
		if st.Key == key {
			return st, true, nil
		}
	}
	return core.StreakState{}, false, nil
}

func (s *Store) SaveStreak(_ context.Context, state core.StreakState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := string(state.Key.UserID)
	streaks := s.doc.Streaks[user]
	replaced := false
	for i, st := range streaks {
		if st.Key == state.Key {
			streaks[i] = state
			replaced = true
			break
		}
	}
	if !replaced {
		streaks = append(streaks, state)
	}
	s.doc.Streaks[user] = streaks
	return s.persist()
}

func (s *Store) ListStreaks(_ context.Context, user core.UserID) ([]core.StreakState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	streaks := s.doc.Streaks[string(user)]
	out := make([]core.StreakState, len(streaks))
	copy(out, streaks)
	return out, nil
}

func (s *Store) LoadAchievementProgress(_ context.Context, user core.UserID) (map[string]achievement.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.doc.Progress[string(user)]
	out := make(map[string]achievement.Progress, len(records))
	for _, p := range records {
		out[p.AchievementID] = p
	}
	return out, nil
}

func (s *Store) SaveAchievementProgress(_ context.Context, progress achievement.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := string(progress.UserID)
	records := s.doc.Progress[user]
	replaced := false
	for i, p := range records {
		if p.AchievementID == progress.AchievementID {
			records[i] = progress
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, progress)
	}
	s.doc.Progress[user] = records
	return s.persist()
}

func (s *Store) AppendLedger(_ context.Context, entry core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := string(entry.UserID)
	s.doc.Ledger[user] = append(s.doc.Ledger[user], entry)
	return s.persist()
}

func (s *Store) ListLedger(_ context.Context, user core.UserID, limit int) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger := s.doc.Ledger[string(user)]
	n := len(ledger)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]core.LedgerEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, ledger[i])
	}
	return out, nil
}
