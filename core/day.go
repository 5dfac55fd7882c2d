package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Day identifies one calendar day in the user's timezone. Streak
// arithmetic works on Days rather than raw timestamps so that a
// completion at 23:59 and one at 00:01 land on different days exactly
// when the user's calendar says they do.
type Day struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Date  int        `json:"date"`
}

// DayOf returns the calendar day of t in the given location.
// A nil location means UTC.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return Day{Year: lt.Year(), Month: lt.Month(), Date: lt.Day()}
}

// IsZero reports whether d is the zero Day (no activity recorded yet).
func (d Day) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Date == 0
}

// Midnight returns the instant the day begins in loc. A nil location
// means UTC.
func (d Day) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, loc)
}

// midnight anchors the day in UTC purely for arithmetic; the choice of
// zone cancels out because both operands use it.
func (d Day) midnight() time.Time {
	return d.Midnight(time.UTC)
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	t := d.midnight().AddDate(0, 0, n)
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}
}

// Next returns the following calendar day, handling month/year rollover.
func (d Day) Next() Day { return d.AddDays(1) }

// Sub returns the signed number of calendar days from other to d.
func (d Day) Sub(other Day) int {
	return int(d.midnight().Sub(other.midnight()).Hours() / 24)
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool { return d.midnight().Before(other.midnight()) }

// String renders the day as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Date)
}

// MarshalJSON encodes the day as a "YYYY-MM-DD" string for stable
// storage keys across adapters.
func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the "YYYY-MM-DD" form and the empty string.
func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", s, err)
	}
	*d = Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}
	return nil
}

// ParseDay parses a YYYY-MM-DD string into a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}, nil
}
