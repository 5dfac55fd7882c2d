package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSafe(t *testing.T) {
	v, err := AddSafe(10, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)

	_, err = AddSafe(math.MaxInt64, 1)
	assert.Error(t, err)

	_, err = AddSafe(math.MinInt64, -1)
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.3, Clamp01(0.3))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

func TestNormalizeUserID(t *testing.T) {
	id, err := NormalizeUserID("  Alice ")
	require.NoError(t, err)
	assert.Equal(t, UserID("alice"), id)

	_, err = NormalizeUserID("   ")
	assert.Error(t, err)
}

func TestValidateSource(t *testing.T) {
	assert.NoError(t, ValidateSource(SourceHabitCompleted))
	assert.NoError(t, ValidateSource(SourceStreakMilestone))
	assert.Error(t, ValidateSource(ActionSource("teleported")))
}

func TestNewProgressionState(t *testing.T) {
	st := NewProgressionState("alice")
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, "Novice", st.Title)
	assert.Zero(t, st.TotalXP)
	assert.Zero(t, st.PrestigeLevel)
}
