package services

import (
	"errors"
	"testing"
	"time"
)

func TestHolidayCalendarCachesWithinTTL(t *testing.T) {
	fetches := 0
	hc := NewHolidayCalendarWithFetch(24*time.Hour,
		func() time.Time { return time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC) },
		func(beYear int) ([]Holiday, error) {
			fetches++
			return []Holiday{{Date: "2026-04-13", Name: "Songkran Festival"}}, nil
		})

	hc.GetHolidays([]int{2569})
	hc.GetHolidays([]int{2569})
	if fetches != 1 {
		t.Fatalf("expected 1 fetch, got %d", fetches)
	}
}

func TestHolidayCalendarRefetchesAfterTTL(t *testing.T) {
	fetches := 0
	now := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	hc := NewHolidayCalendarWithFetch(time.Hour,
		func() time.Time { return now },
		func(beYear int) ([]Holiday, error) {
			fetches++
			return nil, nil
		})

	hc.GetHolidays([]int{2569})
	now = now.Add(2 * time.Hour)
	hc.GetHolidays([]int{2569})
	if fetches != 2 {
		t.Fatalf("expected 2 fetches, got %d", fetches)
	}
}

func TestHolidayCalendarFetchErrorReturnsEmpty(t *testing.T) {
	hc := NewHolidayCalendarWithFetch(time.Hour, time.Now,
		func(beYear int) ([]Holiday, error) {
			return nil, errors.New("feed timeout")
		})

	got := hc.GetHolidays([]int{2569})
	if len(got) != 0 {
		t.Fatalf("expected no holidays on fetch failure, got %v", got)
	}
	if ok, _ := hc.IsHoliday(time.Date(2026, time.April, 13, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("IsHoliday should be false when the feed is down")
	}
}

func TestHolidayCalendarServesStaleOnFetchError(t *testing.T) {
	now := time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)
	failing := false
	hc := NewHolidayCalendarWithFetch(time.Hour,
		func() time.Time { return now },
		func(beYear int) ([]Holiday, error) {
			if failing {
				return nil, errors.New("feed down")
			}
			return []Holiday{{Date: "2026-04-13", Name: "Songkran Festival"}}, nil
		})

	first := hc.GetHolidays([]int{2569})
	if len(first) != 1 {
		t.Fatalf("expected 1 holiday, got %d", len(first))
	}

	// Expire the cache, then break the feed. Stale data must keep serving.
	now = now.Add(2 * time.Hour)
	failing = true
	stale := hc.GetHolidays([]int{2569})
	if len(stale) != 1 || stale[0].Name != "Songkran Festival" {
		t.Fatalf("expected stale holidays to be served, got %v", stale)
	}
}

func TestIsHolidayUsesBuddhistEraYear(t *testing.T) {
	var askedYear int
	hc := NewHolidayCalendarWithFetch(time.Hour, time.Now,
		func(beYear int) ([]Holiday, error) {
			askedYear = beYear
			return []Holiday{{Date: "2026-12-05", Name: "Father's Day"}}, nil
		})

	ok, name := hc.IsHoliday(time.Date(2026, time.December, 5, 0, 0, 0, 0, time.UTC))
	if askedYear != 2569 {
		t.Errorf("expected fetch for BE year 2569, got %d", askedYear)
	}
	if !ok || name != "Father's Day" {
		t.Errorf("expected holiday hit, got ok=%v name=%q", ok, name)
	}
}

func TestHolidayMap(t *testing.T) {
	hc := NewHolidayCalendarWithFetch(time.Hour, time.Now,
		func(beYear int) ([]Holiday, error) {
			if beYear == 2569 {
				return []Holiday{{Date: "2026-04-13", Name: "Songkran Festival"}}, nil
			}
			return []Holiday{{Date: "2027-01-01", Name: "New Year's Day"}}, nil
		})

	got := hc.HolidayMap([]int{2569, 2570})
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got["2026-04-13"] != "Songkran Festival" {
		t.Errorf("unexpected map contents: %v", got)
	}
}

func TestConvertBuddhistDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2569-04-13", "2026-04-13", false},
		{"2569-01-01", "2026-01-01", false},
		{"2569-13-40", "", true},
		{"not-a-date", "", true},
		{"2569", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := convertBuddhistDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("convertBuddhistDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("convertBuddhistDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
