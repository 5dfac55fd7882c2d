package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"progresskit/core"
)

// Hub broadcasts progression events to subscriber channels. A
// subscription may be scoped to one user or receive everything.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

type subscriber struct {
	ch   chan core.Event
	user core.UserID // empty means all users
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

// Subscribe receives every event. The buffer bounds how far a slow
// consumer may lag before events are dropped.
func (h *Hub) Subscribe(buffer int) (int, <-chan core.Event) {
	return h.subscribe("", buffer)
}

// SubscribeUser receives only the given user's events.
func (h *Hub) SubscribeUser(user core.UserID, buffer int) (int, <-chan core.Event) {
	return h.subscribe(user, buffer)
}

func (h *Hub) subscribe(user core.UserID, buffer int) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.Event, buffer)
	h.subs[id] = subscriber{ch: ch, user: user}
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Broadcast delivers ev to every matching subscriber. Sends happen
// under the read lock: they never block (full buffers drop), and
// Unsubscribe closes channels under the write lock, so a send can
// never hit a closed channel.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.user != "" && sub.user != ev.UserID {
			continue
		}
		select {
		case sub.ch <- ev:
		default: /* drop if full */
		}
	}
}

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
