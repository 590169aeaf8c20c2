package services

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandDatesDisabled(t *testing.T) {
	base := date(2026, time.March, 10)
	got, err := ExpandDates(base, RepeatSpec{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(base) {
		t.Fatalf("expected [%v], got %v", base, got)
	}
}

func TestExpandDatesWeekly(t *testing.T) {
	// 2026-01-06 is a Tuesday
	base := date(2026, time.January, 6)
	spec := RepeatSpec{
		Enabled:    true,
		Frequency:  FrequencyWeekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Tuesday, time.Thursday},
		End:        RepeatEnd{Type: RepeatEndAfter, Count: 4},
	}

	got, err := ExpandDates(base, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		date(2026, time.January, 6),
		date(2026, time.January, 8),
		date(2026, time.January, 13),
		date(2026, time.January, 15),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("date %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestExpandDatesWeeklySkipsDaysBeforeBase(t *testing.T) {
	// Base on Wednesday; Monday of the same week must not be emitted.
	base := date(2026, time.January, 7)
	spec := RepeatSpec{
		Enabled:    true,
		Frequency:  FrequencyWeekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday},
		End:        RepeatEnd{Type: RepeatEndAfter, Count: 3},
	}

	got, err := ExpandDates(base, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		date(2026, time.January, 7),
		date(2026, time.January, 12),
		date(2026, time.January, 14),
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("date %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestExpandDatesDailyUntilDate(t *testing.T) {
	base := date(2026, time.March, 1)
	end := date(2026, time.March, 7)
	spec := RepeatSpec{
		Enabled:   true,
		Frequency: FrequencyDaily,
		Interval:  2,
		End:       RepeatEnd{Type: RepeatEndOn, Date: &end},
	}

	got, err := ExpandDates(base, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		date(2026, time.March, 1),
		date(2026, time.March, 3),
		date(2026, time.March, 5),
		date(2026, time.March, 7),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("date %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestExpandDatesMonthlyClampsDay(t *testing.T) {
	base := date(2026, time.January, 31)
	spec := RepeatSpec{
		Enabled:   true,
		Frequency: FrequencyMonthly,
		Interval:  1,
		End:       RepeatEnd{Type: RepeatEndAfter, Count: 3},
	}

	got, err := ExpandDates(base, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		date(2026, time.January, 31),
		date(2026, time.February, 28), // 2026 is not a leap year
		date(2026, time.March, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("date %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestExpandDatesAfterCountSpansYears(t *testing.T) {
	// Ten bimonthly occurrences cover eighteen months; the count is the only
	// terminator, so none may be dropped.
	base := date(2026, time.January, 5)
	spec := RepeatSpec{
		Enabled:   true,
		Frequency: FrequencyMonthly,
		Interval:  2,
		End:       RepeatEnd{Type: RepeatEndAfter, Count: 10},
	}

	got, err := ExpandDates(base, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 dates, got %d", len(got))
	}
	last := got[len(got)-1]
	if !last.Equal(date(2027, time.July, 5)) {
		t.Errorf("expected last date 2027-07-05, got %v", last)
	}
}

func TestExpandDatesNeverEndIsBounded(t *testing.T) {
	base := date(2026, time.January, 1)
	spec := RepeatSpec{
		Enabled:   true,
		Frequency: FrequencyDaily,
		Interval:  1,
		End:       RepeatEnd{Type: RepeatEndNever},
	}

	got, err := ExpandDates(base, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One year of daily candidates, boundary inclusive.
	if len(got) != 366 {
		t.Fatalf("expected 366 dates, got %d", len(got))
	}
	last := got[len(got)-1]
	if !last.Equal(date(2027, time.January, 1)) {
		t.Errorf("expected last date 2027-01-01, got %v", last)
	}
}

func TestRepeatSpecValidate(t *testing.T) {
	endDate := date(2026, time.June, 1)
	tests := []struct {
		name    string
		spec    RepeatSpec
		wantErr bool
	}{
		{"disabled always valid", RepeatSpec{Enabled: false}, false},
		{"weekly without days", RepeatSpec{Enabled: true, Frequency: FrequencyWeekly, Interval: 1, End: RepeatEnd{Type: RepeatEndNever}}, true},
		{"zero interval", RepeatSpec{Enabled: true, Frequency: FrequencyDaily, Interval: 0, End: RepeatEnd{Type: RepeatEndNever}}, true},
		{"unknown frequency", RepeatSpec{Enabled: true, Frequency: "yearly", Interval: 1, End: RepeatEnd{Type: RepeatEndNever}}, true},
		{"after without count", RepeatSpec{Enabled: true, Frequency: FrequencyDaily, Interval: 1, End: RepeatEnd{Type: RepeatEndAfter}}, true},
		{"on without date", RepeatSpec{Enabled: true, Frequency: FrequencyDaily, Interval: 1, End: RepeatEnd{Type: RepeatEndOn}}, true},
		{"valid daily", RepeatSpec{Enabled: true, Frequency: FrequencyDaily, Interval: 1, End: RepeatEnd{Type: RepeatEndOn, Date: &endDate}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
