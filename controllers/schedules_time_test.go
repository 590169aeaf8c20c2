package controllers

import "testing"

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "bare time",
			input:      "07:45",
			expHour:    7,
			expMinutes: 45,
		},
		{
			name:       "time with seconds",
			input:      "18:05:30",
			expHour:    18,
			expMinutes: 5,
		},
		{
			name:       "rfc3339 datetime",
			input:      "2026-01-06T09:30:00Z",
			expHour:    9,
			expMinutes: 30,
		},
		{
			name:       "mysql datetime",
			input:      "2026-01-06 13:00:00",
			expHour:    13,
			expMinutes: 0,
		},
		{
			name:       "datetime without seconds",
			input:      "2026-01-06T16:20",
			expHour:    16,
			expMinutes: 20,
		},
		{
			name:       "time with offset",
			input:      "10:00:00+07:00",
			expHour:    10,
			expMinutes: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := parseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestParseHourMinuteInvalid(t *testing.T) {
	for _, input := range []string{"", "noon", "25:99"} {
		if _, _, err := parseHourMinute(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

// Normalization zero-pads so "HH:MM" strings compare correctly as times.
func TestNormalizeHourMinute(t *testing.T) {
	got, err := normalizeHourMinute("9:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "09:05" {
		t.Fatalf("expected 09:05, got %s", got)
	}
}
