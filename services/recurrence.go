package services

import (
	"fmt"
	"sort"
	"time"
)

// Repeat frequencies supported by the expander
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Repeat end modes
const (
	RepeatEndNever = "never"
	RepeatEndAfter = "after"
	RepeatEndOn    = "on"
)

// A repeat with end type "never" still has to terminate somewhere; one year of
// candidates from the base date is the synthetic horizon.
const neverHorizon = 365 * 24 * time.Hour

// RepeatEnd บอกว่า pattern จบเมื่อไหร่
type RepeatEnd struct {
	Type  string     `json:"type"` // never, after, on
	Count int        `json:"count,omitempty"`
	Date  *time.Time `json:"date,omitempty"`
}

// RepeatSpec describes a recurrence: how often sessions repeat and when they stop.
type RepeatSpec struct {
	Enabled    bool           `json:"enabled"`
	Frequency  string         `json:"frequency"` // daily, weekly, monthly
	Interval   int            `json:"interval"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"` // weekly only
	End        RepeatEnd      `json:"end"`
}

// Validate rejects malformed specs before any date is produced.
func (r RepeatSpec) Validate() error {
	if !r.Enabled {
		return nil
	}
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("invalid repeat frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("repeat interval must be at least 1")
	}
	if r.Frequency == FrequencyWeekly && len(r.DaysOfWeek) == 0 {
		return fmt.Errorf("weekly repeat requires at least one day of week")
	}
	for _, d := range r.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid day of week %d", int(d))
		}
	}
	switch r.End.Type {
	case RepeatEndNever:
	case RepeatEndAfter:
		if r.End.Count < 1 {
			return fmt.Errorf("repeat end count must be at least 1")
		}
	case RepeatEndOn:
		if r.End.Date == nil {
			return fmt.Errorf("repeat end date is required for end type \"on\"")
		}
	default:
		return fmt.Errorf("invalid repeat end type %q", r.End.Type)
	}
	return nil
}

// ExpandDates turns a repeat spec into a deduplicated, chronologically ordered
// list of candidate dates starting at base. A disabled spec yields base alone.
func ExpandDates(base time.Time, spec RepeatSpec) ([]time.Time, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	base = truncateToDate(base)
	if !spec.Enabled {
		return []time.Time{base}, nil
	}

	limit, boundary := expansionBounds(base, spec.End)

	var dates []time.Time
	switch spec.Frequency {
	case FrequencyDaily:
		dates = expandDaily(base, spec.Interval, limit, boundary)
	case FrequencyWeekly:
		dates = expandWeekly(base, spec.Interval, spec.DaysOfWeek, limit, boundary)
	case FrequencyMonthly:
		dates = expandMonthly(base, spec.Interval, limit, boundary)
	}

	return dedupSorted(dates), nil
}

// expansionBounds resolves the end spec into an occurrence limit and an
// inclusive boundary date; either may be unset. "after" terminates on count
// alone: a sparse pattern may span any number of years.
func expansionBounds(base time.Time, end RepeatEnd) (limit int, boundary *time.Time) {
	switch end.Type {
	case RepeatEndAfter:
		limit = end.Count
	case RepeatEndOn:
		d := truncateToDate(*end.Date)
		boundary = &d
		limit = -1
	default: // never
		horizon := base.Add(neverHorizon)
		boundary = &horizon
		limit = -1
	}
	return limit, boundary
}

func expandDaily(base time.Time, interval int, limit int, boundary *time.Time) []time.Time {
	var out []time.Time
	for d := base; !afterBoundary(d, boundary); d = d.AddDate(0, 0, interval) {
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// expandWeekly iterates week buckets of `interval` weeks and emits every
// requested weekday that falls on or after the base date.
func expandWeekly(base time.Time, interval int, days []time.Weekday, limit int, boundary *time.Time) []time.Time {
	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	var out []time.Time
	weekStart := startOfWeek(base)
	for !afterBoundary(weekStart, boundary) {
		for i := 0; i < 7; i++ {
			day := weekStart.AddDate(0, 0, i)
			if day.Before(base) || !wanted[day.Weekday()] {
				continue
			}
			if afterBoundary(day, boundary) {
				continue
			}
			out = append(out, day)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
		weekStart = weekStart.AddDate(0, 0, 7*interval)
	}
	return out
}

// expandMonthly advances by `interval` months, clamping the day of month to the
// shorter month's length (Jan 31 + 1 month → Feb 28/29).
func expandMonthly(base time.Time, interval int, limit int, boundary *time.Time) []time.Time {
	var out []time.Time
	for step := 0; ; step += interval {
		d := addMonthsClamped(base, step)
		if afterBoundary(d, boundary) {
			break
		}
		out = append(out, d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func addMonthsClamped(base time.Time, months int) time.Time {
	y, m, day := base.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, base.Location())
	if last := daysInMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, base.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return truncateToDate(t).AddDate(0, 0, -offset)
}

func afterBoundary(d time.Time, boundary *time.Time) bool {
	return boundary != nil && d.After(*boundary)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dedupSorted(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:0]
	var prev time.Time
	for i, d := range dates {
		if i > 0 && d.Equal(prev) {
			continue
		}
		out = append(out, d)
		prev = d
	}
	return out
}
