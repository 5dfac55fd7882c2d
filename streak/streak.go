// Package streak implements consecutive-day streak arithmetic. All
// functions are pure: they take a streak snapshot and a calendar day
// and return the updated snapshot, so day-boundary behavior can be
// tested without a wall clock.
package streak

import (
	"progresskit/core"
)

// Record applies one qualifying activity on day to s. It returns the
// updated state and whether the activity was counted; a second
// activity on the same calendar day is a no-op.
func Record(s core.StreakState, day core.Day) (core.StreakState, bool) {
	s = Heal(s)

	switch {
	case !s.LastActivity.IsZero() && day == s.LastActivity:
		// Same-day double credit protection.
		return s, false
	case !s.LastActivity.IsZero() && day == s.LastActivity.Next():
		s.Current++
	case !s.LastActivity.IsZero() && day.Before(s.LastActivity):
		// Out-of-order replay of an older day. Already credited days
		// must not rewind the streak.
		return s, false
	default:
		// First activity ever, or a gap of two or more days.
		s.Current = 1
		s.StreakStart = day
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivity = day
	return s, true
}

// Continuity reports whether the streak is still alive as of ref: the
// last credited day is ref itself or the day before.
func Continuity(s core.StreakState, ref core.Day) bool {
	if s.LastActivity.IsZero() || s.Current == 0 {
		return false
	}
	return s.LastActivity == ref || s.LastActivity == ref.AddDays(-1)
}

// Reset breaks the streak after a missed day, keeping the longest
// record. Used by the scheduled continuity sweep.
func Reset(s core.StreakState, day core.Day) core.StreakState {
	s = Heal(s)
	s.Current = 0
	s.StreakStart = day
	return s
}

// Heal repairs the Current <= Longest invariant in place of crashing.
// A violation indicates corrupted stored state, not a user error.
func Heal(s core.StreakState) core.StreakState {
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s
}
