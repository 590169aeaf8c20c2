package services

import (
	"fmt"
	"time"

	"pattana_go/models"

	"gorm.io/gorm"
)

// Bounded retry for the weekly makeup-date probe. After this many one-week
// hops the occurrence is left for manual assignment instead of looping.
const maxMakeupProbeWeeks = 52

// Skip reasons for the ad-hoc path
const (
	SkipReasonDuplicate = "duplicate"
	SkipReasonConflict  = "conflict"
)

// SlotSpec is the weekday/time template a schedule repeats on.
type SlotSpec struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	StartTime string       `json:"start_time"` // "15:04"
	EndTime   string       `json:"end_time"`
}

// PlannedMakeup is the auto-reschedule target found by the weekly probe.
type PlannedMakeup struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// PlannedSession is one calendar occurrence the generator wants to persist.
type PlannedSession struct {
	Date               time.Time
	SessionNumber      int
	WeekNumber         int
	StartTime          string
	EndTime            string
	SlotIndex          int
	Status             string
	CancellationReason string
	Notes              string
	Makeup             *PlannedMakeup
}

// AddSessionResult is the per-date outcome of the ad-hoc path.
type AddSessionResult struct {
	Date      string `json:"date"`
	Created   bool   `json:"created"`
	Reason    string `json:"reason,omitempty"` // duplicate, conflict
	SessionID uint   `json:"session_id,omitempty"`
}

// TargetSessionCount is ceil(totalHours / hoursPerSession).
func TargetSessionCount(totalHours, hoursPerSession int) int {
	if hoursPerSession <= 0 {
		return 0
	}
	return (totalHours + hoursPerSession - 1) / hoursPerSession
}

// WeekNumber counts Monday-aligned week boundaries between the schedule start
// and the session date, starting at 1 for the first week.
func WeekNumber(start, date time.Time) int {
	weeks := int(startOfWeek(date).Sub(startOfWeek(start)).Hours() / (24 * 7))
	return weeks + 1
}

// OccurrenceKey identifies a session row inside one schedule for duplicate
// detection: same date and same half-open window.
func OccurrenceKey(date time.Time, startTime, endTime string) string {
	return date.Format("2006-01-02") + "|" + startTime + "|" + endTime
}

// PlanScheduleSessions walks calendar days forward from startDate and emits
// one occurrence per day whose weekday matches a slot, until target
// occurrences exist. Holidays cancel the occurrence in place; when
// autoReschedule is on a bounded weekly probe looks for a same-weekday makeup
// date. Occurrences whose key is already in existing are dropped so that
// re-running generation is idempotent.
// holidays maps "2006-01-02" → holiday name and may be empty (best-effort).
func PlanScheduleSessions(startDate time.Time, slots []SlotSpec, target int, autoReschedule bool, holidays map[string]string, existing map[string]struct{}) []PlannedSession {
	if target <= 0 || len(slots) == 0 {
		return nil
	}

	slotByDay := make(map[time.Weekday]int, len(slots))
	for i, s := range slots {
		slotByDay[s.DayOfWeek] = i
	}

	var planned []PlannedSession
	sessionNumber := 1
	day := truncateToDate(startDate)

	for emitted := 0; emitted < target; day = day.AddDate(0, 0, 1) {
		slotIdx, ok := slotByDay[day.Weekday()]
		if !ok {
			continue
		}
		slot := slots[slotIdx]
		emitted++

		p := PlannedSession{
			Date:          day,
			SessionNumber: sessionNumber,
			WeekNumber:    WeekNumber(startDate, day),
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			SlotIndex:     slotIdx,
			Status:        "scheduled",
		}
		sessionNumber++

		if name, isHoliday := holidays[day.Format("2006-01-02")]; isHoliday {
			p.Status = "cancelled"
			p.CancellationReason = fmt.Sprintf("Public holiday: %s", name)
			if autoReschedule {
				if makeupDate, found := probeMakeupDate(day, holidays); found {
					p.Makeup = &PlannedMakeup{Date: makeupDate, StartTime: slot.StartTime, EndTime: slot.EndTime}
				} else {
					p.Notes = "makeup pending manual assignment"
				}
			}
		}

		if _, dup := existing[OccurrenceKey(p.Date, p.StartTime, p.EndTime)]; dup {
			continue
		}
		planned = append(planned, p)
	}

	return planned
}

// probeMakeupDate hops forward in one-week increments, keeping the weekday,
// until it finds a non-holiday date. Bounded so pathological holiday density
// can never hang generation.
func probeMakeupDate(from time.Time, holidays map[string]string) (time.Time, bool) {
	candidate := from
	for i := 0; i < maxMakeupProbeWeeks; i++ {
		candidate = candidate.AddDate(0, 0, 7)
		if _, isHoliday := holidays[candidate.Format("2006-01-02")]; !isHoliday {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// GenerateForSchedule runs the bulk path inside the caller's transaction:
// plans every occurrence for the schedule's slots, skips rows that already
// exist, and inserts originals plus their auto-reschedule makeups.
// time slots ต้องถูก persist แล้ว (มี ID) ก่อนเรียก
func GenerateForSchedule(tx *gorm.DB, schedule *models.Schedule, timeSlots []models.TimeSlot, hc *HolidayCalendar) (created int, skipped int, err error) {
	slots := make([]SlotSpec, len(timeSlots))
	for i, ts := range timeSlots {
		slots[i] = SlotSpec{DayOfWeek: ts.DayOfWeek, StartTime: ts.StartTime, EndTime: ts.EndTime}
	}

	target := TargetSessionCount(schedule.TotalHours, schedule.HoursPerSession)

	// First pass without holiday data just to learn the date span, so we know
	// which Buddhist-era years to ask the feed for.
	dryRun := PlanScheduleSessions(schedule.StartDate, slots, target, false, nil, map[string]struct{}{})
	holidays := map[string]string{}
	if hc != nil && len(dryRun) > 0 {
		lastDate := dryRun[len(dryRun)-1].Date
		// Leave headroom for the weekly makeup probe spilling into a later year.
		holidays = hc.HolidayMap(BEYearRange(schedule.StartDate, lastDate.AddDate(1, 0, 0)))
	}

	existing, err := existingOccurrenceKeys(tx, schedule.ID)
	if err != nil {
		return 0, 0, err
	}

	planned := PlanScheduleSessions(schedule.StartDate, slots, target, schedule.AutoRescheduleHoliday, holidays, existing)
	skipped = target - len(planned)

	for _, p := range planned {
		session := models.Session{
			ScheduleID:         schedule.ID,
			TimeSlotID:         timeSlotID(timeSlots, p.SlotIndex),
			SessionDate:        p.Date,
			SessionNumber:      p.SessionNumber,
			WeekNumber:         p.WeekNumber,
			StartTime:          p.StartTime,
			EndTime:            p.EndTime,
			Status:             p.Status,
			CancellationReason: p.CancellationReason,
			Notes:              p.Notes,
		}
		if err := tx.Create(&session).Error; err != nil {
			return created, skipped, err
		}
		created++

		if p.Makeup == nil {
			continue
		}
		if _, dup := existing[OccurrenceKey(p.Makeup.Date, p.Makeup.StartTime, p.Makeup.EndTime)]; dup {
			skipped++
			continue
		}
		makeup := models.Session{
			ScheduleID:         schedule.ID,
			TimeSlotID:         session.TimeSlotID,
			SessionDate:        p.Makeup.Date,
			SessionNumber:      p.SessionNumber,
			WeekNumber:         p.WeekNumber,
			StartTime:          p.Makeup.StartTime,
			EndTime:            p.Makeup.EndTime,
			Status:             "scheduled",
			IsMakeupSession:    true,
			MakeupForSessionID: &session.ID,
			Notes:              "auto-rescheduled from holiday",
		}
		if err := tx.Create(&makeup).Error; err != nil {
			return created, skipped, err
		}
		created++
	}

	return created, skipped, nil
}

// AddSessions is the ad-hoc path: expand the repeat spec, then handle every
// date independently. One bad date never blocks the rest, so each date gets
// its own insert and its own created/skipped outcome.
func AddSessions(db *gorm.DB, schedule *models.Schedule, baseDate time.Time, startTime, endTime string, spec RepeatSpec) ([]AddSessionResult, error) {
	dates, err := ExpandDates(baseDate, spec)
	if err != nil {
		return nil, err
	}

	results := make([]AddSessionResult, 0, len(dates))
	for _, date := range dates {
		result := AddSessionResult{Date: date.Format("2006-01-02")}

		var dup int64
		if err := db.Model(&models.Session{}).
			Where("schedule_id = ? AND DATE(session_date) = ? AND start_time = ? AND end_time = ?",
				schedule.ID, date.Format("2006-01-02"), startTime, endTime).
			Count(&dup).Error; err != nil {
			return nil, err
		}
		if dup > 0 {
			result.Reason = SkipReasonDuplicate
			results = append(results, result)
			continue
		}

		conflicts, err := DetectConflicts(db, ConflictCheck{
			TeacherID: schedule.DefaultTeacherID,
			RoomID:    schedule.DefaultRoomID,
			Date:      date,
			StartTime: startTime,
			EndTime:   endTime,
		})
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			result.Reason = SkipReasonConflict
			results = append(results, result)
			continue
		}

		slot, err := resolveTimeSlot(db, schedule.ID, date.Weekday(), startTime, endTime)
		if err != nil {
			return nil, err
		}

		var maxNumber int
		if err := db.Model(&models.Session{}).
			Where("schedule_id = ?", schedule.ID).
			Select("COALESCE(MAX(session_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return nil, err
		}

		session := models.Session{
			ScheduleID:    schedule.ID,
			TimeSlotID:    &slot.ID,
			SessionDate:   date,
			SessionNumber: maxNumber + 1,
			WeekNumber:    WeekNumber(schedule.StartDate, date),
			StartTime:     startTime,
			EndTime:       endTime,
			Status:        "scheduled",
		}
		if err := db.Create(&session).Error; err != nil {
			return nil, err
		}

		result.Created = true
		result.SessionID = session.ID
		results = append(results, result)
	}

	return results, nil
}

// resolveTimeSlot finds the schedule's slot for the weekday/time combination,
// creating it lazily when an ad-hoc session introduces a new one.
func resolveTimeSlot(db *gorm.DB, scheduleID uint, day time.Weekday, startTime, endTime string) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := db.Where("schedule_id = ? AND day_of_week = ? AND start_time = ? AND end_time = ?",
		scheduleID, day, startTime, endTime).First(&slot).Error
	if err == nil {
		return &slot, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.TimeSlot{}).Where("schedule_id = ?", scheduleID).Count(&count).Error; err != nil {
		return nil, err
	}

	slot = models.TimeSlot{
		ScheduleID: scheduleID,
		DayOfWeek:  day,
		StartTime:  startTime,
		EndTime:    endTime,
		SlotOrder:  int(count) + 1,
	}
	if err := db.Create(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func existingOccurrenceKeys(db *gorm.DB, scheduleID uint) (map[string]struct{}, error) {
	var rows []models.Session
	if err := db.Select("session_date", "start_time", "end_time").
		Where("schedule_id = ?", scheduleID).Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		keys[OccurrenceKey(r.SessionDate, r.StartTime, r.EndTime)] = struct{}{}
	}
	return keys, nil
}

func timeSlotID(slots []models.TimeSlot, idx int) *uint {
	if idx < 0 || idx >= len(slots) {
		return nil
	}
	id := slots[idx].ID
	if id == 0 {
		return nil
	}
	return &id
}

// BEYearRange lists the Buddhist-era years covering [from, to].
func BEYearRange(from, to time.Time) []int {
	var years []int
	for y := from.Year(); y <= to.Year(); y++ {
		years = append(years, y+buddhistEraOffset)
	}
	return years
}
