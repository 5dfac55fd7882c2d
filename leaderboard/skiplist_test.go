package leaderboard

import (
	"context"
	"testing"
	"time"

	"progresskit/core"
	"progresskit/engine"
)

func TestSkipListBasic(t *testing.T) {
	s := NewSkipList()
	s.Update(core.UserID("a"), 10)
	s.Update(core.UserID("b"), 20)
	s.Update(core.UserID("c"), 15)
	top := s.TopN(3)
	if len(top) != 3 || top[0].User != core.UserID("b") || top[1].User != core.UserID("c") || top[2].User != core.UserID("a") {
		t.Fatalf("unexpected order: %#v", top)
	}
	s.Update(core.UserID("a"), 25)
	top = s.TopN(1)
	if top[0].User != core.UserID("a") {
		t.Fatalf("top should be a, got %#v", top)
	}
}

func TestSkipListRank(t *testing.T) {
	s := NewSkipList()
	s.Update("a", 100)
	s.Update("b", 300)
	s.Update("c", 200)

	if r, ok := s.Rank("b"); !ok || r != 1 {
		t.Fatalf("expected b at rank 1, got %d (%v)", r, ok)
	}
	if r, ok := s.Rank("a"); !ok || r != 3 {
		t.Fatalf("expected a at rank 3, got %d (%v)", r, ok)
	}
	if _, ok := s.Rank("missing"); ok {
		t.Fatal("missing user should have no rank")
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", s.Len())
	}
}

func TestSkipListRemove(t *testing.T) {
	s := NewSkipList()
	s.Update("a", 10)
	s.Update("b", 20)
	s.Remove("b")

	if _, ok := s.Get("b"); ok {
		t.Fatal("b should be gone")
	}
	if r, _ := s.Rank("a"); r != 1 {
		t.Fatalf("a should move up to rank 1, got %d", r)
	}
}

func TestAttachKeepsBoardCurrent(t *testing.T) {
	bus := engine.NewEventBus(engine.DispatchSync)
	defer bus.Close()

	board := NewSkipList()
	detach := Attach(board, bus)
	defer detach()

	entry := core.LedgerEntry{UserID: "alice", Source: core.SourceHabitCompleted, Amount: 10}
	bus.Publish(context.Background(), core.NewPointsAwarded(time.Now(), entry, 110))

	got, ok := board.Get("alice")
	if !ok || got.Score != 110 {
		t.Fatalf("expected alice at 110, got %+v (%v)", got, ok)
	}
}
