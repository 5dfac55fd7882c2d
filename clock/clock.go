// Package clock abstracts wall time so that day boundaries and streak
// arithmetic can be driven deterministically in tests.
package clock

import (
	"time"

	"progresskit/core"
)

// Clock provides the current instant and maps instants to calendar days.
type Clock interface {
	Now() time.Time
	Day(t time.Time) core.Day
	// Loc is where the day boundary falls; nil means UTC.
	Loc() *time.Location
}

// System is the production clock. The location decides where the day
// boundary falls; a nil location means UTC.
type System struct {
	Location *time.Location
}

// NewSystem returns a system clock anchored to loc.
func NewSystem(loc *time.Location) *System {
	return &System{Location: loc}
}

func (s *System) Now() time.Time {
	return time.Now()
}

func (s *System) Day(t time.Time) core.Day {
	return core.DayOf(t, s.Location)
}

func (s *System) Loc() *time.Location {
	return s.Location
}

// Fixed is a controllable clock for tests. Advance it explicitly to
// cross day boundaries.
type Fixed struct {
	Current  time.Time
	Location *time.Location
}

// NewFixed returns a fixed clock starting at t, with days computed in UTC.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t, Location: time.UTC}
}

func (f *Fixed) Now() time.Time {
	return f.Current
}

func (f *Fixed) Day(t time.Time) core.Day {
	return core.DayOf(t, f.Location)
}

func (f *Fixed) Loc() *time.Location {
	return f.Location
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

// AdvanceDays moves the clock forward by whole days.
func (f *Fixed) AdvanceDays(n int) {
	f.Current = f.Current.AddDate(0, 0, n)
}
