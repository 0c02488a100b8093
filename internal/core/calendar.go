package core

import (
	"fmt"
	"time"
)

// LocalDay is a calendar date as observed in a specific timezone. The zone
// itself is not part of the value; the same LocalDay maps to different UTC
// windows depending on the *time.Location it is interpreted in.
type LocalDay struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the local calendar day that the instant t falls in.
func DayOf(t time.Time, loc *time.Location) LocalDay {
	y, m, d := t.In(loc).Date()
	return LocalDay{Year: y, Month: m, Day: d}
}

// NewLocalDay builds a LocalDay from its components, normalizing overflow
// (e.g. month 13 becomes January of the next year).
func NewLocalDay(year int, month time.Month, day int) LocalDay {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return LocalDay{Year: y, Month: m, Day: d}
}

// ParseLocalDay parses a date in 2006-01-02 form.
func ParseLocalDay(s string) (LocalDay, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDay{}, fmt.Errorf("parse local day %q: %w", s, err)
	}
	return DayOf(t, time.UTC), nil
}

func (d LocalDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero LocalDay.
func (d LocalDay) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Window returns the half-open UTC instant interval [start, end) covered by
// d in the given zone. End is the start of the following local day, so DST
// transitions yield 23- or 25-hour windows rather than a naive 24h shift.
func (d LocalDay) Window(loc *time.Location) (start, end time.Time) {
	s := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	e := s.AddDate(0, 0, 1)
	return s.UTC(), e.UTC()
}

// AddDays returns the local day n calendar days away from d. n may be
// negative. The arithmetic is on the calendar, not on instants.
func (d LocalDay) AddDays(n int) LocalDay {
	return NewLocalDay(d.Year, d.Month, d.Day+n)
}

// Before reports whether d is strictly earlier than other.
func (d LocalDay) Before(other LocalDay) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d LocalDay) After(other LocalDay) bool {
	return other.Before(d)
}

// Equal reports whether d and other name the same calendar date.
func (d LocalDay) Equal(other LocalDay) bool {
	return d == other
}

// DaysBetween returns the number of calendar days from first to last,
// inclusive on both ends. Returns 0 if first is after last.
func DaysBetween(first, last LocalDay) int {
	if first.After(last) {
		return 0
	}
	a := time.Date(first.Year, first.Month, first.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(last.Year, last.Month, last.Day, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a)/(24*time.Hour)) + 1
}
