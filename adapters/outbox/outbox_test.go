package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/achievement"
	"progresskit/adapters/memory"
	"progresskit/core"
	"progresskit/engine"
)

func TestWritesQueueChanges(t *testing.T) {
	g := Wrap(memory.New())
	ctx := context.Background()

	require.NoError(t, g.SaveState(ctx, core.NewProgressionState("u1")))
	require.NoError(t, g.SaveStreak(ctx, core.StreakState{
		Key: core.StreakKey{UserID: "u1", EntityID: "h1", Kind: core.KindHabit},
	}))
	require.NoError(t, g.SaveAchievementProgress(ctx, achievement.Progress{
		UserID: "u1", AchievementID: "first-steps", Target: 1,
	}))
	require.NoError(t, g.AppendLedger(ctx, core.LedgerEntry{
		ID: "e1", UserID: "u1", Source: core.SourceHabitCompleted, Amount: 10, Timestamp: time.Now(),
	}))

	pending := g.Pending()
	require.Len(t, pending, 4)
	assert.Equal(t, ChangeState, pending[0].Kind)
	assert.Equal(t, ChangeStreak, pending[1].Kind)
	assert.Equal(t, "h1|habit", pending[1].Key)
	assert.Equal(t, ChangeAchievementProgress, pending[2].Kind)
	assert.Equal(t, "first-steps", pending[2].Key)
	assert.Equal(t, ChangeLedger, pending[3].Kind)

	// Pending does not clear.
	assert.Len(t, g.Pending(), 4)

	drained := g.Drain()
	assert.Len(t, drained, 4)
	assert.Empty(t, g.Pending())
}

func TestFailedWritesAreNotQueued(t *testing.T) {
	inner := &failingGateway{PersistenceGateway: memory.New()}
	g := Wrap(inner)

	err := g.SaveState(context.Background(), core.NewProgressionState("u1"))
	assert.Error(t, err)
	assert.Empty(t, g.Pending())
}

func TestReadsPassThrough(t *testing.T) {
	store := memory.New()
	g := Wrap(store)
	ctx := context.Background()

	state := core.NewProgressionState("u1")
	state.TotalXP = 42
	require.NoError(t, store.SaveState(ctx, state))

	got, found, err := g.LoadState(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(42), got.TotalXP)
	assert.Empty(t, g.Pending(), "reads do not queue changes")
}

type failingGateway struct {
	engine.PersistenceGateway
}

func (f *failingGateway) SaveState(ctx context.Context, state core.ProgressionState) error {
	return errors.New("storage down")
}
