package core

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestDayOfAcrossZones(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	ny := mustLoad(t, "America/New_York")

	cases := []struct {
		instant string
		loc     *time.Location
		want    LocalDay
	}{
		// 2024-01-01T02:00Z is still New Year's Eve in Los Angeles (UTC-8).
		{"2024-01-01T02:00:00Z", la, LocalDay{2023, time.December, 31}},
		{"2024-01-01T02:00:00Z", time.UTC, LocalDay{2024, time.January, 1}},
		{"2024-03-10T04:30:00Z", ny, LocalDay{2024, time.March, 9}},
		{"2024-03-10T05:30:00Z", ny, LocalDay{2024, time.March, 10}},
	}
	for i, tc := range cases {
		inst, err := time.Parse(time.RFC3339, tc.instant)
		if err != nil {
			t.Fatalf("case %d parse: %v", i, err)
		}
		got := DayOf(inst, tc.loc)
		if got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}

func TestWindowIsHalfOpen(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	d := LocalDay{2024, time.January, 2}

	start, end := d.Window(ny)
	if got := DayOf(start, ny); got != d {
		t.Fatalf("window start buckets to %v, want %v", got, d)
	}
	if got := DayOf(end.Add(-time.Nanosecond), ny); got != d {
		t.Fatalf("instant just before end buckets to %v, want %v", got, d)
	}
	if got := DayOf(end, ny); got != d.AddDays(1) {
		t.Fatalf("window end buckets to %v, want next day", got)
	}
}

func TestWindowAcrossDSTSpringForward(t *testing.T) {
	// 2024-03-10 in America/New_York is a 23-hour day.
	ny := mustLoad(t, "America/New_York")
	start, end := LocalDay{2024, time.March, 10}.Window(ny)
	if got := end.Sub(start); got != 23*time.Hour {
		t.Fatalf("DST day window is %v, want 23h", got)
	}
}

func TestAddDays(t *testing.T) {
	cases := []struct {
		d    LocalDay
		n    int
		want LocalDay
	}{
		{LocalDay{2024, time.January, 31}, 1, LocalDay{2024, time.February, 1}},
		{LocalDay{2024, time.February, 28}, 1, LocalDay{2024, time.February, 29}}, // leap year
		{LocalDay{2024, time.January, 1}, -1, LocalDay{2023, time.December, 31}},
		{LocalDay{2024, time.March, 9}, 2, LocalDay{2024, time.March, 11}}, // across DST
		{LocalDay{2024, time.June, 15}, 0, LocalDay{2024, time.June, 15}},
	}
	for i, tc := range cases {
		if got := tc.d.AddDays(tc.n); got != tc.want {
			t.Fatalf("case %d: %v + %d days = %v, want %v", i, tc.d, tc.n, got, tc.want)
		}
	}
}

func TestParseAndString(t *testing.T) {
	d, err := ParseLocalDay("2024-01-02")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != (LocalDay{2024, time.January, 2}) {
		t.Fatalf("parsed %v", d)
	}
	if s := d.String(); s != "2024-01-02" {
		t.Fatalf("string %q", s)
	}
	if _, err := ParseLocalDay("02/01/2024"); err == nil {
		t.Fatalf("expected error for wrong format")
	}
}

func TestComparisonsAndDaysBetween(t *testing.T) {
	a := LocalDay{2023, time.December, 31}
	b := LocalDay{2024, time.January, 1}
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("ordering broken across year boundary")
	}
	if !b.After(a) {
		t.Fatalf("After broken")
	}
	if !a.Equal(a) || a.Equal(b) {
		t.Fatalf("Equal broken")
	}
	if got := DaysBetween(a, b); got != 2 {
		t.Fatalf("DaysBetween inclusive = %d, want 2", got)
	}
	if got := DaysBetween(b, a); got != 0 {
		t.Fatalf("inverted DaysBetween = %d, want 0", got)
	}
	if got := DaysBetween(a, a); got != 1 {
		t.Fatalf("single day DaysBetween = %d, want 1", got)
	}
}
