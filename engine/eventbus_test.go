package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"progresskit/core"
)

func TestEventBusSyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var got []core.Event
	unsub := bus.Subscribe(core.EventPointsAwarded, func(_ context.Context, ev core.Event) {
		got = append(got, ev)
	})

	bus.Publish(context.Background(), core.Event{Type: core.EventPointsAwarded, UserID: "u1", Amount: 10})
	bus.Publish(context.Background(), core.Event{Type: core.EventLevelUp, UserID: "u1"})

	assert.Len(t, got, 1, "only subscribed type delivered")
	assert.Equal(t, int64(10), got[0].Amount)

	unsub()
	bus.Publish(context.Background(), core.Event{Type: core.EventPointsAwarded, UserID: "u1"})
	assert.Len(t, got, 1, "no delivery after unsubscribe")
}

func TestEventBusAsyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(core.EventStreakExtended, func(_ context.Context, _ core.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		bus.Publish(context.Background(), core.Event{Type: core.EventStreakExtended, UserID: "u1"})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 10
	}, time.Second, 5*time.Millisecond)
}

func TestEventBusCloseStopsWorkers(t *testing.T) {
	bus := NewEventBus(DispatchAsync)

	var mu sync.Mutex
	count := 0
	bus.Subscribe(core.EventPointsAwarded, func(_ context.Context, _ core.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(context.Background(), core.Event{Type: core.EventPointsAwarded, UserID: "u1"})
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 5*time.Millisecond)

	// Close blocks until every worker has exited, so nothing published
	// afterwards is ever dispatched.
	bus.Close()
	bus.Publish(context.Background(), core.Event{Type: core.EventPointsAwarded, UserID: "u1"})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestSubscribeAllCoversEveryType(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	seen := map[core.EventType]int{}
	bus.SubscribeAll(func(_ context.Context, ev core.Event) {
		seen[ev.Type]++
	})

	types := []core.EventType{
		core.EventPointsAwarded,
		core.EventStreakExtended,
		core.EventStreakBroken,
		core.EventLevelUp,
		core.EventPrestige,
		core.EventAchievementUnlocked,
	}
	for _, typ := range types {
		bus.Publish(context.Background(), core.Event{Type: typ, UserID: "u1"})
	}
	for _, typ := range types {
		assert.Equal(t, 1, seen[typ], string(typ))
	}
}
