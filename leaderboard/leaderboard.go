// Package leaderboard ranks users by lifetime XP. The board is fed by
// the event bus, so it reflects only committed progression state.
package leaderboard

import (
	"context"

	"progresskit/core"
	"progresskit/engine"
)

// Entry is one ranked user.
type Entry struct {
	User  core.UserID `json:"user_id"`
	Score int64       `json:"score"`
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(user core.UserID, score int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	Rank(user core.UserID) (int, bool)
	Len() int
}

// Attach subscribes a board to the bus so points awards keep it
// current. The returned function detaches it.
func Attach(board Board, bus *engine.EventBus) func() {
	unsub := bus.Subscribe(core.EventPointsAwarded, func(_ context.Context, ev core.Event) {
		board.Update(ev.UserID, ev.Total)
	})
	return unsub
}
