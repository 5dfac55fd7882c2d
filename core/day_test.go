package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_Timezones(t *testing.T) {
	// 2024-03-10 23:30 in New York is already 2024-03-11 in UTC.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	instant := time.Date(2024, 3, 11, 4, 30, 0, 0, time.UTC)

	assert.Equal(t, Day{2024, time.March, 11}, DayOf(instant, time.UTC))
	assert.Equal(t, Day{2024, time.March, 10}, DayOf(instant, ny))
}

func TestDay_NextRollsOverMonths(t *testing.T) {
	assert.Equal(t, Day{2024, time.March, 1}, Day{2024, time.February, 29}.Next())
	assert.Equal(t, Day{2025, time.January, 1}, Day{2024, time.December, 31}.Next())
}

func TestDay_Sub(t *testing.T) {
	a := Day{2024, time.January, 30}
	b := Day{2024, time.February, 2}
	assert.Equal(t, 3, b.Sub(a))
	assert.Equal(t, -3, a.Sub(b))
	assert.Equal(t, 0, a.Sub(a))
}

func TestDay_JSONRoundTrip(t *testing.T) {
	d := Day{2024, time.July, 4}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-04"`, string(b))

	var back Day
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	var zero Day
	b, err = json.Marshal(zero)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.IsZero())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Day{2024, time.February, 29}, d)

	_, err = ParseDay("not-a-day")
	assert.Error(t, err)
}
