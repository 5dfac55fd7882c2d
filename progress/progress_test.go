package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "progresskit/adapters/memory"
	"progresskit/clock"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	hub := realtime.NewHub()
	svc := New(
		WithRealtime(hub),
		WithGateway(mem.New()),
		WithClock(clock.NewFixed(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))),
		WithDispatchMode(engine.DispatchSync),
	)
	defer svc.Close()

	_, ch := hub.Subscribe(8)

	res, err := svc.Process(context.Background(), core.Action{
		UserID:   "alice",
		Source:   core.SourceHabitCompleted,
		EntityID: "habit-1",
		Kind:     core.KindHabit,
	})
	require.NoError(t, err)
	assert.Positive(t, res.Entry.Amount)

	// The realtime bridge should see the committed points event.
	ev := <-ch
	assert.Equal(t, core.UserID("alice"), ev.UserID)
	assert.Equal(t, core.EventPointsAwarded, ev.Type)
}

func TestNewInMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	_, err := svc.Process(context.Background(), core.Action{
		UserID: "bob",
		Source: core.SourceTaskCompleted,
	})
	require.NoError(t, err)

	state, err := svc.State(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.TasksCompleted)
}
