package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{"0.5", 50, true},
		{".75", 75, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"0", 0, true}, // a zero daily allowance is valid
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"12a", 0, false},
		{"99999999999999999999", 0, false}, // overflow
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestUserLocation(t *testing.T) {
	if _, err := (User{Timezone: "Europe/Rome"}).Location(); err != nil {
		t.Fatalf("valid zone: %v", err)
	}
	loc, err := (User{}).Location()
	if err != nil {
		t.Fatalf("empty zone must fall back to default: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Fatalf("fallback zone = %s", loc)
	}
	if _, err := (User{Timezone: "Not/AZone"}).Location(); err != ErrInvalidTimezone {
		t.Fatalf("invalid zone: got %v", err)
	}
}
