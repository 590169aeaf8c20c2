package services

import (
	"strings"
	"testing"
	"time"
)

func TestTargetSessionCount(t *testing.T) {
	tests := []struct {
		name            string
		totalHours      int
		hoursPerSession int
		want            int
	}{
		{"even split", 40, 2, 20},
		{"partial last session rounds up", 50, 3, 17},
		{"sixty hour course", 60, 2, 30},
		{"zero hours per session", 40, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetSessionCount(tt.totalHours, tt.hoursPerSession); got != tt.want {
				t.Errorf("TargetSessionCount(%d, %d) = %d, want %d", tt.totalHours, tt.hoursPerSession, got, tt.want)
			}
		})
	}
}

func TestWeekNumberMondayAligned(t *testing.T) {
	// Schedule starts Tuesday 2026-01-06; its week runs Mon Jan 5 – Sun Jan 11.
	start := date(2026, time.January, 6)
	tests := []struct {
		name string
		d    time.Time
		want int
	}{
		{"start date itself", start, 1},
		{"later same week", date(2026, time.January, 8), 1},
		{"sunday still same week", date(2026, time.January, 11), 1},
		{"next monday starts week two", date(2026, time.January, 12), 2},
		{"three weeks out", date(2026, time.January, 21), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekNumber(start, tt.d); got != tt.want {
				t.Errorf("WeekNumber(%v, %v) = %d, want %d", start, tt.d, got, tt.want)
			}
		})
	}
}

func TestOccurrenceKey(t *testing.T) {
	got := OccurrenceKey(date(2026, time.January, 6), "10:00", "12:00")
	if got != "2026-01-06|10:00|12:00" {
		t.Errorf("unexpected key %q", got)
	}
}

func scheduleSlots() []SlotSpec {
	return []SlotSpec{
		{DayOfWeek: time.Tuesday, StartTime: "10:00", EndTime: "12:00"},
		{DayOfWeek: time.Thursday, StartTime: "13:00", EndTime: "15:00"},
	}
}

func TestPlanScheduleSessions(t *testing.T) {
	start := date(2026, time.January, 6)
	planned := PlanScheduleSessions(start, scheduleSlots(), 4, false, nil, map[string]struct{}{})

	if len(planned) != 4 {
		t.Fatalf("expected 4 planned sessions, got %d", len(planned))
	}

	wantDates := []time.Time{
		date(2026, time.January, 6),
		date(2026, time.January, 8),
		date(2026, time.January, 13),
		date(2026, time.January, 15),
	}
	wantWeeks := []int{1, 1, 2, 2}
	for i, p := range planned {
		if !p.Date.Equal(wantDates[i]) {
			t.Errorf("session %d: expected date %v, got %v", i, wantDates[i], p.Date)
		}
		if p.SessionNumber != i+1 {
			t.Errorf("session %d: expected number %d, got %d", i, i+1, p.SessionNumber)
		}
		if p.WeekNumber != wantWeeks[i] {
			t.Errorf("session %d: expected week %d, got %d", i, wantWeeks[i], p.WeekNumber)
		}
		if p.Status != "scheduled" {
			t.Errorf("session %d: expected status scheduled, got %q", i, p.Status)
		}
	}

	// Tuesday slot times on Tuesday occurrences, Thursday's on Thursday.
	if planned[0].StartTime != "10:00" || planned[1].StartTime != "13:00" {
		t.Errorf("slot times not matched to weekday: %q / %q", planned[0].StartTime, planned[1].StartTime)
	}
}

func TestPlanScheduleSessionsHolidayCancelsInPlace(t *testing.T) {
	start := date(2026, time.January, 6)
	holidays := map[string]string{"2026-01-08": "Test Holiday"}

	planned := PlanScheduleSessions(start, scheduleSlots(), 4, true, holidays, map[string]struct{}{})
	if len(planned) != 4 {
		t.Fatalf("expected 4 planned sessions, got %d", len(planned))
	}

	hit := planned[1]
	if hit.Status != "cancelled" {
		t.Fatalf("expected holiday occurrence cancelled, got %q", hit.Status)
	}
	if !strings.Contains(hit.CancellationReason, "Test Holiday") {
		t.Errorf("cancellation reason should name the holiday, got %q", hit.CancellationReason)
	}
	if hit.Makeup == nil {
		t.Fatal("expected auto-reschedule makeup")
	}
	// One week later, same weekday and times.
	if !hit.Makeup.Date.Equal(date(2026, time.January, 15)) {
		t.Errorf("expected makeup on 2026-01-15, got %v", hit.Makeup.Date)
	}
	if hit.Makeup.StartTime != "13:00" || hit.Makeup.EndTime != "15:00" {
		t.Errorf("makeup must keep the slot times, got %s-%s", hit.Makeup.StartTime, hit.Makeup.EndTime)
	}

	// The cancelled occurrence still counts toward the target.
	last := planned[3]
	if !last.Date.Equal(date(2026, time.January, 15)) {
		t.Errorf("expected final occurrence 2026-01-15, got %v", last.Date)
	}
}

func TestPlanScheduleSessionsNoMakeupWithoutAutoReschedule(t *testing.T) {
	start := date(2026, time.January, 6)
	holidays := map[string]string{"2026-01-08": "Test Holiday"}

	planned := PlanScheduleSessions(start, scheduleSlots(), 4, false, holidays, map[string]struct{}{})
	if planned[1].Status != "cancelled" {
		t.Fatalf("expected cancelled occurrence, got %q", planned[1].Status)
	}
	if planned[1].Makeup != nil {
		t.Error("makeup must not be planned when auto-reschedule is off")
	}
}

func TestPlanScheduleSessionsProbeGivesUp(t *testing.T) {
	start := date(2026, time.January, 6)

	// The occurrence date and every weekly hop after it are holidays.
	holidays := map[string]string{}
	d := date(2026, time.January, 8)
	for i := 0; i <= maxMakeupProbeWeeks; i++ {
		holidays[d.Format("2006-01-02")] = "Endless Holiday"
		d = d.AddDate(0, 0, 7)
	}

	planned := PlanScheduleSessions(start, scheduleSlots(), 2, true, holidays, map[string]struct{}{})
	hit := planned[1]
	if hit.Makeup != nil {
		t.Fatal("probe should give up when every candidate is a holiday")
	}
	if hit.Notes != "makeup pending manual assignment" {
		t.Errorf("expected manual-assignment note, got %q", hit.Notes)
	}
}

func TestPlanScheduleSessionsSkipsExisting(t *testing.T) {
	start := date(2026, time.January, 6)
	existing := map[string]struct{}{
		OccurrenceKey(date(2026, time.January, 6), "10:00", "12:00"): {},
	}

	planned := PlanScheduleSessions(start, scheduleSlots(), 4, false, nil, existing)
	if len(planned) != 3 {
		t.Fatalf("expected 3 planned sessions after duplicate skip, got %d", len(planned))
	}
	// Numbering reflects the full walk, so re-runs never renumber.
	if planned[0].SessionNumber != 2 {
		t.Errorf("expected first surviving session number 2, got %d", planned[0].SessionNumber)
	}
	if !planned[0].Date.Equal(date(2026, time.January, 8)) {
		t.Errorf("expected first surviving date 2026-01-08, got %v", planned[0].Date)
	}
}

func TestBEYearRange(t *testing.T) {
	got := BEYearRange(date(2026, time.November, 1), date(2027, time.February, 1))
	if len(got) != 2 || got[0] != 2569 || got[1] != 2570 {
		t.Errorf("expected [2569 2570], got %v", got)
	}
}
