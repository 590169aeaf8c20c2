package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// The holiday feed speaks Buddhist-era years (BE = CE + 543).
const buddhistEraOffset = 543

// Holiday is one public holiday, with the date already converted to Gregorian.
type Holiday struct {
	Date string `json:"date"` // "2006-01-02"
	Name string `json:"name"`
}

// holidayFeedEntry mirrors the upstream payload: dates carry the BE year.
type holidayFeedEntry struct {
	Date  string `json:"Date"` // "YYYY(BE)-MM-DD"
	Title string `json:"Title"`
}

// FetchFunc loads holidays for one Buddhist-era year from the upstream feed.
type FetchFunc func(beYear int) ([]Holiday, error)

type holidayCacheEntry struct {
	holidays  []Holiday
	fetchedAt time.Time
}

// HolidayCalendar is a best-effort, cached lookup of Thai public holidays.
// One instance is constructed at process start and passed by reference; the
// clock and fetch function are injectable so tests can substitute fakes.
// วันหยุดเป็นข้อมูล best-effort เสมอ ห้าม block หรือ fail การ generate
type HolidayCalendar struct {
	mu    sync.Mutex
	cache map[int]holidayCacheEntry // keyed by BE year
	ttl   time.Duration
	now   func() time.Time
	fetch FetchFunc
}

// NewHolidayCalendar builds a calendar backed by the given feed URL with the
// given per-request timeout and cache freshness window.
func NewHolidayCalendar(feedURL string, timeout, ttl time.Duration) *HolidayCalendar {
	client := &http.Client{Timeout: timeout}
	return &HolidayCalendar{
		cache: make(map[int]holidayCacheEntry),
		ttl:   ttl,
		now:   time.Now,
		fetch: func(beYear int) ([]Holiday, error) {
			return fetchHolidayFeed(client, feedURL, beYear)
		},
	}
}

// NewHolidayCalendarWithFetch is the test seam: explicit clock and fetch func.
func NewHolidayCalendarWithFetch(ttl time.Duration, now func() time.Time, fetch FetchFunc) *HolidayCalendar {
	return &HolidayCalendar{
		cache: make(map[int]holidayCacheEntry),
		ttl:   ttl,
		now:   now,
		fetch: fetch,
	}
}

// GetHolidays returns the holidays for the given Buddhist-era years. A fresh
// cache entry is returned synchronously; a miss costs one bounded network call
// per year. Years whose fetch times out, errors, or returns garbage are
// silently skipped; this method never fails.
func (hc *HolidayCalendar) GetHolidays(beYears []int) []Holiday {
	var all []Holiday
	for _, year := range beYears {
		all = append(all, hc.holidaysForYear(year)...)
	}
	return all
}

// HolidayMap returns date("2006-01-02") → holiday name for the given BE years.
func (hc *HolidayCalendar) HolidayMap(beYears []int) map[string]string {
	out := make(map[string]string)
	for _, h := range hc.GetHolidays(beYears) {
		out[h.Date] = h.Name
	}
	return out
}

// IsHoliday checks a single Gregorian date.
func (hc *HolidayCalendar) IsHoliday(date time.Time) (bool, string) {
	beYear := date.Year() + buddhistEraOffset
	key := date.Format("2006-01-02")
	for _, h := range hc.holidaysForYear(beYear) {
		if h.Date == key {
			return true, h.Name
		}
	}
	return false, ""
}

func (hc *HolidayCalendar) holidaysForYear(beYear int) []Holiday {
	hc.mu.Lock()
	entry, ok := hc.cache[beYear]
	fresh := ok && hc.now().Sub(entry.fetchedAt) < hc.ttl
	hc.mu.Unlock()

	if fresh {
		return entry.holidays
	}

	holidays, err := hc.fetch(beYear)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"be_year": beYear,
			"error":   err.Error(),
		}).Warn("holiday feed unavailable, continuing without holiday data")
		// Keep serving the stale entry if we ever had one.
		if ok {
			return entry.holidays
		}
		return nil
	}

	hc.mu.Lock()
	hc.cache[beYear] = holidayCacheEntry{holidays: holidays, fetchedAt: hc.now()}
	hc.mu.Unlock()
	return holidays
}

// fetchHolidayFeed does one GET against the feed for a BE year and converts
// the payload dates to Gregorian.
func fetchHolidayFeed(client *http.Client, feedURL string, beYear int) ([]Holiday, error) {
	url := fmt.Sprintf("%s?%d.json", feedURL, beYear)
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays for BE year %d: %w", beYear, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday feed returned status %d for BE year %d", resp.StatusCode, beYear)
	}

	var entries []holidayFeedEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode holiday feed for BE year %d: %w", beYear, err)
	}

	holidays := make([]Holiday, 0, len(entries))
	for _, e := range entries {
		date, err := convertBuddhistDate(e.Date)
		if err != nil {
			// ข้ามรายการที่ parse ไม่ได้ ไม่ต้อง fail ทั้งปี
			continue
		}
		holidays = append(holidays, Holiday{Date: date, Name: e.Title})
	}
	return holidays, nil
}

// convertBuddhistDate turns "YYYY(BE)-MM-DD" into an ISO Gregorian date.
func convertBuddhistDate(s string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed feed date %q", s)
	}
	beYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("malformed feed year %q", parts[0])
	}
	ceYear := beYear - buddhistEraOffset
	parsed, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%s-%s", ceYear, parts[1], parts[2]))
	if err != nil {
		return "", err
	}
	return parsed.Format("2006-01-02"), nil
}
