package issueparse

import (
	"testing"
	"time"
)

func TestParseTime_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"RFC3339", "2024-01-15T10:30:45Z"},
		{"RFC3339Nano", "2024-01-15T10:30:45.123456789Z"},
		{"RFC3339 offset", "2024-01-15T10:30:45+05:00"},
		{"no zone", "2024-01-15T10:30:45"},
		{"space separated", "2024-01-15 10:30:45"},
		{"millis", "2024-01-15 10:30:45.123"},
		{"comma decimal", "2024-01-15 10:30:45,123"},
		{"date only", "2024-01-15"},
		{"us date", "01/15/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := ParseTime(tt.input)
			if !ok {
				t.Fatalf("ParseTime(%q) failed", tt.input)
			}
			if ts.Year() != 2024 || ts.Month() != time.January {
				t.Errorf("ParseTime(%q) = %v, want January 2024", tt.input, ts)
			}
		})
	}
}

func TestParseTime_Invalid(t *testing.T) {
	for _, input := range []interface{}{"", "   ", "yesterday", nil, true, time.Time{}} {
		if _, ok := ParseTime(input); ok {
			t.Errorf("ParseTime(%#v) should fail", input)
		}
	}
}

func TestParseTime_Epochs(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"seconds float", float64(1705314645)},
		{"seconds int", 1705314645},
		{"seconds string", "1705314645"},
		{"millis", int64(1705314645000)},
		{"micros", int64(1705314645000000)},
		{"nanos", int64(1705314645000000000)},
	}

	want := time.Date(2024, time.January, 15, 10, 30, 45, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := ParseTime(tt.input)
			if !ok {
				t.Fatalf("ParseTime(%v) failed", tt.input)
			}
			if !ts.Equal(want) {
				t.Errorf("ParseTime(%v) = %v, want %v", tt.input, ts, want)
			}
		})
	}
}

func TestParseTime_TimeValue(t *testing.T) {
	in := time.Date(2023, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	ts, ok := ParseTime(in)
	if !ok || !ts.Equal(in) || ts.Location() != time.UTC {
		t.Fatalf("ParseTime(time) = %v, %v", ts, ok)
	}
}
