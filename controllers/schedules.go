package controllers

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"
	"pattana_go/services"
	notifsvc "pattana_go/services/notifications"
	"pattana_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ScheduleController struct {
	Holidays *services.HolidayCalendar
}

// notifyScheduleTeacher looks up the schedule's default teacher and queues a
// notification for them, without blocking the request.
func notifyScheduleTeacher(scheduleID uint, title, titleTh, message, messageTh, typ string) {
	go func() {
		var schedule models.Schedule
		if err := database.DB.Select("default_teacher_id").First(&schedule, scheduleID).Error; err != nil || schedule.DefaultTeacherID == nil {
			return
		}
		_ = notifsvc.NewService().EnqueueOrCreate([]uint{*schedule.DefaultTeacherID}, notifsvc.Queued(
			title, titleTh, message, messageTh, typ))
	}()
}

func NewScheduleController(holidays *services.HolidayCalendar) *ScheduleController {
	return &ScheduleController{Holidays: holidays}
}

type TimeSlotRequest struct {
	DayOfWeek string `json:"day_of_week"` // monday ... sunday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CreateScheduleRequest struct {
	CourseID               uint              `json:"course_id" validate:"required"`
	ScheduleName           string            `json:"schedule_name" validate:"required"`
	DefaultTeacherID       *uint             `json:"default_teacher_id"`
	DefaultRoomID          *uint             `json:"default_room_id"`
	TotalHours             int               `json:"total_hours" validate:"required,min=1"`
	HoursPerSession        int               `json:"hours_per_session" validate:"required,min=1"`
	MaxStudents            int               `json:"max_students"`
	StartDate              string            `json:"start_date" validate:"required"` // 2006-01-02
	AutoRescheduleHolidays *bool             `json:"auto_reschedule_holidays"`
	Notes                  string            `json:"notes"`
	TimeSlots              []TimeSlotRequest `json:"time_slots" validate:"required,min=1"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("invalid day_of_week %q", name)
}

// parseHourMinute accepts "15:04" first, then a handful of datetime layouts
// that clients have historically sent instead of a bare time.
func parseHourMinute(value string) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, fmt.Errorf("time value cannot be empty")
	}

	layout := "15:04"
	if colonCount := strings.Count(value, ":"); colonCount >= 2 {
		layout = "15:04:05"
	}

	if t, err := time.Parse(layout, value); err == nil {
		return t.Hour(), t.Minute(), nil
	} else {
		fallbackLayouts := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02 15:04",
			"2006-01-02T15:04",
		}

		for _, layout := range fallbackLayouts {
			if parsed, altErr := time.Parse(layout, value); altErr == nil {
				return parsed.Hour(), parsed.Minute(), nil
			}
		}

		timePattern := regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
		if match := timePattern.FindString(value); match != "" && match != value {
			return parseHourMinute(match)
		}

		return 0, 0, fmt.Errorf("invalid time format %q: %w", value, err)
	}
}

// normalizeHourMinute reduces any accepted time format to zero-padded "15:04"
// so string comparison stays a valid time comparison.
func normalizeHourMinute(value string) (string, error) {
	h, m, err := parseHourMinute(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func parseDateParam(value string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

// CreateSchedule creates a schedule with its time slots and generates the full
// session calendar in one transaction.
func (sc *ScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.ScheduleName == "" || req.CourseID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "schedule_name and course_id are required"})
	}
	if req.TotalHours <= 0 || req.HoursPerSession <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total_hours and hours_per_session must be positive"})
	}
	if len(req.TimeSlots) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at least one time slot is required"})
	}

	startDate, err := parseDateParam(req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be YYYY-MM-DD"})
	}

	var course models.Course
	if err := database.DB.First(&course, req.CourseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	slots := make([]models.TimeSlot, 0, len(req.TimeSlots))
	seenDays := make(map[time.Weekday]bool)
	for i, ts := range req.TimeSlots {
		day, err := parseWeekday(ts.DayOfWeek)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if seenDays[day] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("duplicate time slot for %s", ts.DayOfWeek)})
		}
		seenDays[day] = true

		start, err := normalizeHourMinute(ts.StartTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		end, err := normalizeHourMinute(ts.EndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if start >= end {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be before end_time"})
		}

		slots = append(slots, models.TimeSlot{
			DayOfWeek: day,
			StartTime: start,
			EndTime:   end,
			SlotOrder: i + 1,
		})
	}

	autoReschedule := true
	if req.AutoRescheduleHolidays != nil {
		autoReschedule = *req.AutoRescheduleHolidays
	}

	user, _ := middleware.GetCurrentUser(c)
	adminName := ""
	if user != nil {
		adminName = user.Username
	}

	schedule := models.Schedule{
		CourseID:              req.CourseID,
		DefaultTeacherID:      req.DefaultTeacherID,
		DefaultRoomID:         req.DefaultRoomID,
		ScheduleName:          req.ScheduleName,
		TotalHours:            req.TotalHours,
		HoursPerSession:       req.HoursPerSession,
		MaxStudents:           req.MaxStudents,
		StartDate:             startDate,
		Status:                "active",
		AutoRescheduleHoliday: autoReschedule,
		Notes:                 req.Notes,
		AdminAssigned:         adminName,
	}

	var created, skipped int
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&schedule).Error; err != nil {
			return err
		}
		for i := range slots {
			slots[i].ScheduleID = schedule.ID
			if err := tx.Create(&slots[i]).Error; err != nil {
				return err
			}
		}
		var genErr error
		created, skipped, genErr = services.GenerateForSchedule(tx, &schedule, slots, sc.Holidays)
		return genErr
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create schedule"})
	}

	middleware.LogActivity(c, "CREATE", "schedules", schedule.ID, fiber.Map{
		"sessions_created": created,
		"sessions_skipped": skipped,
	})

	notifyScheduleTeacher(schedule.ID,
		"New schedule assigned",
		"มีตารางเรียนใหม่",
		fmt.Sprintf("Schedule %q starts on %s", schedule.ScheduleName, schedule.StartDate.Format("2006-01-02")),
		fmt.Sprintf("ตารางเรียน %q เริ่มวันที่ %s", schedule.ScheduleName, schedule.StartDate.Format("2006-01-02")),
		"info")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":          "Schedule created successfully",
		"schedule":         schedule,
		"sessions_created": created,
		"sessions_skipped": skipped,
	})
}

// GetSchedules lists schedules with optional filters.
func (sc *ScheduleController) GetSchedules(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Schedule{}).
		Preload("Course").Preload("TimeSlots")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		query = query.Where("default_teacher_id = ?", teacherID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count schedules"})
	}

	var schedules []models.Schedule
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch schedules"})
	}

	return c.JSON(fiber.Map{
		"schedules": schedules,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GetScheduleDetail returns one schedule with its slots and progress counts.
func (sc *ScheduleController) GetScheduleDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	var schedule models.Schedule
	if err := database.DB.Preload("Course").Preload("TimeSlots").
		Preload("DefaultTeacher").Preload("DefaultRoom").
		First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	type statusCount struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	var counts []statusCount
	if err := database.DB.Model(&models.Session{}).
		Select("status, COUNT(*) AS count").
		Where("schedule_id = ?", schedule.ID).
		Group("status").Scan(&counts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch session counts"})
	}

	progress := fiber.Map{"scheduled": int64(0), "completed": int64(0), "cancelled": int64(0)}
	var total int64
	for _, row := range counts {
		progress[row.Status] = row.Count
		total += row.Count
	}
	progress["total"] = total

	var enrolled int64
	database.DB.Model(&models.Enrollment{}).
		Where("schedule_id = ? AND status = ?", schedule.ID, "active").Count(&enrolled)

	return c.JSON(fiber.Map{
		"schedule":         schedule,
		"session_progress": progress,
		"enrolled_count":   enrolled,
		"target_sessions":  services.TargetSessionCount(schedule.TotalHours, schedule.HoursPerSession),
	})
}

// UpdateScheduleStatus pauses, resumes, completes or cancels a schedule.
func (sc *ScheduleController) UpdateScheduleStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	valid := map[string]bool{"active": true, "paused": true, "completed": true, "cancelled": true}
	if !valid[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule status"})
	}

	var schedule models.Schedule
	if err := database.DB.First(&schedule, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	if err := database.DB.Model(&schedule).Update("status", req.Status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update schedule"})
	}

	middleware.LogActivity(c, "UPDATE", "schedules", schedule.ID, fiber.Map{"status": req.Status})
	return c.JSON(fiber.Map{"message": "Schedule updated", "schedule": schedule})
}

// sessionRow is the flattened listing row with display fields joined in.
type sessionRow struct {
	ID                 uint   `json:"id" gorm:"column:id"`
	ScheduleID         uint   `json:"schedule_id" gorm:"column:schedule_id"`
	ScheduleName       string `json:"schedule_name" gorm:"column:schedule_name"`
	CourseName         string `json:"course_name" gorm:"column:course_name"`
	SessionDate        string `json:"session_date" gorm:"column:session_date"`
	SessionNumber      int    `json:"session_number" gorm:"column:session_number"`
	WeekNumber         int    `json:"week_number" gorm:"column:week_number"`
	StartTime          string `json:"start_time" gorm:"column:start_time"`
	EndTime            string `json:"end_time" gorm:"column:end_time"`
	Status             string `json:"status" gorm:"column:status"`
	IsMakeupSession    bool   `json:"is_makeup_session" gorm:"column:is_makeup_session"`
	MakeupForSessionID *uint  `json:"makeup_for_session_id,omitempty" gorm:"column:makeup_for_session_id"`
	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"column:cancellation_reason"`
	TeacherID          *uint  `json:"teacher_id,omitempty" gorm:"column:teacher_id"`
	RoomID             *uint  `json:"room_id,omitempty" gorm:"column:room_id"`
	HasComments        bool   `json:"has_comments" gorm:"column:has_comments"`
}

// GetScheduleSessions lists sessions of one schedule with filters and paging.
func (sc *ScheduleController) GetScheduleSessions(c *fiber.Ctx) error {
	scheduleID := c.Params("id")

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := database.DB.Table("sessions").
		Select(`sessions.id, sessions.schedule_id, schedules.schedule_name, courses.name AS course_name,
			DATE_FORMAT(sessions.session_date, '%Y-%m-%d') AS session_date,
			sessions.session_number, sessions.week_number, sessions.start_time, sessions.end_time,
			sessions.status, sessions.is_makeup_session, sessions.makeup_for_session_id,
			sessions.cancellation_reason,
			schedules.default_teacher_id AS teacher_id, schedules.default_room_id AS room_id,
			EXISTS (SELECT 1 FROM session_comments sc
				WHERE sc.session_id = sessions.id AND sc.deleted_at IS NULL) AS has_comments`).
		Joins("JOIN schedules ON schedules.id = sessions.schedule_id").
		Joins("JOIN courses ON courses.id = schedules.course_id").
		Where("sessions.schedule_id = ?", scheduleID).
		Where("sessions.deleted_at IS NULL")

	if status := c.Query("status"); status != "" {
		query = query.Where("sessions.status = ?", status)
	}
	if from := c.Query("date_from"); from != "" {
		if d, err := parseDateParam(from); err == nil {
			query = query.Where("sessions.session_date >= ?", d.Format("2006-01-02"))
		}
	}
	if to := c.Query("date_to"); to != "" {
		if d, err := parseDateParam(to); err == nil {
			query = query.Where("sessions.session_date <= ?", d.Format("2006-01-02"))
		}
	}
	if week := c.Query("week_number"); week != "" {
		query = query.Where("sessions.week_number = ?", week)
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		query = query.Where("schedules.default_teacher_id = ?", teacherID)
	}
	if roomID := c.Query("room_id"); roomID != "" {
		query = query.Where("schedules.default_room_id = ?", roomID)
	}
	if makeup := c.Query("is_makeup"); makeup != "" {
		query = query.Where("sessions.is_makeup_session = ?", makeup == "true")
	}
	if c.Query("has_comments") == "true" {
		query = query.Where(`EXISTS (SELECT 1 FROM session_comments sc
			WHERE sc.session_id = sessions.id AND sc.deleted_at IS NULL)`)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count sessions"})
	}

	var rows []sessionRow
	if err := query.Order("sessions.session_date ASC, sessions.start_time ASC").
		Offset((page - 1) * limit).Limit(limit).
		Scan(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}

	return c.JSON(fiber.Map{
		"sessions": rows,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetSession returns one session with its schedule context.
func (sc *ScheduleController) GetSession(c *fiber.Ctx) error {
	id := c.Params("id")

	var session models.Session
	if err := database.DB.Preload("Schedule").Preload("Schedule.Course").
		Preload("TimeSlot").First(&session, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	return c.JSON(fiber.Map{"session": session})
}

type AddSessionsRequest struct {
	Date      string               `json:"date" validate:"required"` // 2006-01-02
	StartTime string               `json:"start_time" validate:"required"`
	EndTime   string               `json:"end_time" validate:"required"`
	Repeat    *services.RepeatSpec `json:"repeat"`
}

// AddSessionToSchedule appends ad-hoc sessions, optionally expanded from a
// repeat pattern. Each date succeeds or is skipped on its own.
func (sc *ScheduleController) AddSessionToSchedule(c *fiber.Ctx) error {
	scheduleID := c.Params("id")

	var schedule models.Schedule
	if err := database.DB.First(&schedule, scheduleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	var req AddSessionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	baseDate, err := parseDateParam(req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}
	startTime, err := normalizeHourMinute(req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	endTime, err := normalizeHourMinute(req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if startTime >= endTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be before end_time"})
	}

	spec := services.RepeatSpec{}
	if req.Repeat != nil {
		spec = *req.Repeat
	}

	results, err := services.AddSessions(database.DB, &schedule, baseDate, startTime, endTime, spec)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	createdCount := 0
	for _, r := range results {
		if r.Created {
			createdCount++
		}
	}

	middleware.LogActivity(c, "CREATE", "sessions", schedule.ID, fiber.Map{"created": createdCount})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sessions processed",
		"created": createdCount,
		"skipped": len(results) - createdCount,
		"results": results,
	})
}

type UpdateSessionRequest struct {
	SessionDate *string `json:"session_date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Notes       *string `json:"notes"`
}

// UpdateSession edits one session's date/time after re-checking teacher and
// room availability with the session itself excluded from the scan.
func (sc *ScheduleController) UpdateSession(c *fiber.Ctx) error {
	id := c.Params("id")

	var session models.Session
	if err := database.DB.Preload("Schedule").First(&session, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	var req UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	newDate := session.SessionDate
	newStart := session.StartTime
	newEnd := session.EndTime

	if req.SessionDate != nil {
		d, err := parseDateParam(*req.SessionDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_date must be YYYY-MM-DD"})
		}
		newDate = d
	}
	if req.StartTime != nil {
		s, err := normalizeHourMinute(*req.StartTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		newStart = s
	}
	if req.EndTime != nil {
		e, err := normalizeHourMinute(*req.EndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		newEnd = e
	}
	if newStart >= newEnd {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be before end_time"})
	}

	conflicts, err := services.DetectConflicts(database.DB, services.ConflictCheck{
		TeacherID:        session.Schedule.DefaultTeacherID,
		RoomID:           session.Schedule.DefaultRoomID,
		Date:             newDate,
		StartTime:        newStart,
		EndTime:          newEnd,
		ExcludeSessionID: &session.ID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check conflicts"})
	}
	if len(conflicts) > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Session conflicts with existing sessions",
			"conflicts": conflicts,
		})
	}

	updates := map[string]interface{}{
		"session_date": newDate,
		"start_time":   newStart,
		"end_time":     newEnd,
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if err := database.DB.Model(&session).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update session"})
	}

	middleware.LogActivity(c, "UPDATE", "sessions", session.ID, updates)
	return c.JSON(fiber.Map{"message": "Session updated", "session": session})
}

// UpdateSessionStatus marks a session scheduled/completed/cancelled.
func (sc *ScheduleController) UpdateSessionStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status             string `json:"status"`
		CancellationReason string `json:"cancellation_reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	valid := map[string]bool{"scheduled": true, "completed": true, "cancelled": true}
	if !valid[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session status"})
	}
	if req.Status == "cancelled" && req.CancellationReason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cancellation_reason is required when cancelling"})
	}

	var session models.Session
	if err := database.DB.First(&session, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Status == "cancelled" {
		updates["cancellation_reason"] = req.CancellationReason
	}
	if err := database.DB.Model(&session).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update session"})
	}

	middleware.LogActivity(c, "UPDATE", "sessions", session.ID, fiber.Map{"status": req.Status})
	return c.JSON(fiber.Map{"message": "Session status updated", "session": session})
}

// calendarDay is one bucket of the calendar view.
type calendarDay struct {
	Date       string                     `json:"date"`
	Holiday    string                     `json:"holiday,omitempty"`
	Sessions   []utils.SessionDTO         `json:"sessions"`
	Exceptions []models.ScheduleException `json:"exceptions,omitempty"`
}

// GetCalendarView returns sessions grouped by day over a day/week/month
// window, with public holidays and admin exceptions merged in.
func (sc *ScheduleController) GetCalendarView(c *fiber.Ctx) error {
	view := c.Query("view", "week")
	anchor := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		d, err := parseDateParam(dateStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
		}
		anchor = d
	}
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)

	var from, to time.Time
	switch view {
	case "day":
		from, to = anchor, anchor
	case "week":
		// Monday-aligned week
		offset := (int(anchor.Weekday()) + 6) % 7
		from = anchor.AddDate(0, 0, -offset)
		to = from.AddDate(0, 0, 6)
	case "month":
		from = time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, -1)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "view must be day, week or month"})
	}

	query := database.DB.Preload("Schedule").
		Where("session_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if scheduleID := c.Query("schedule_id"); scheduleID != "" {
		query = query.Where("schedule_id = ?", scheduleID)
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		query = query.Joins("JOIN schedules ON schedules.id = sessions.schedule_id").
			Where("schedules.default_teacher_id = ?", teacherID)
	}

	var sessions []models.Session
	if err := query.Order("session_date ASC, start_time ASC").Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}

	var exceptions []models.ScheduleException
	database.DB.Where("exception_date BETWEEN ? AND ?",
		from.Format("2006-01-02"), to.Format("2006-01-02")).Find(&exceptions)

	holidays := map[string]string{}
	if sc.Holidays != nil {
		holidays = sc.Holidays.HolidayMap(services.BEYearRange(from, to))
	}

	days := make(map[string]*calendarDay)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		days[key] = &calendarDay{Date: key, Holiday: holidays[key], Sessions: []utils.SessionDTO{}}
	}
	for _, s := range sessions {
		key := s.SessionDate.Format("2006-01-02")
		if day, ok := days[key]; ok {
			day.Sessions = append(day.Sessions, utils.ToSessionDTO(s))
		}
	}
	for _, e := range exceptions {
		key := e.ExceptionDate.Format("2006-01-02")
		if day, ok := days[key]; ok {
			day.Exceptions = append(day.Exceptions, e)
		}
	}

	ordered := make([]*calendarDay, 0, len(days))
	for _, day := range days {
		ordered = append(ordered, day)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	return c.JSON(fiber.Map{
		"view": view,
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
		"days": ordered,
	})
}

// teacherDayGroup groups one teacher's sessions for the dashboard.
type teacherDayGroup struct {
	TeacherID   uint               `json:"teacher_id"`
	TeacherName string             `json:"teacher_name"`
	Sessions    []utils.SessionDTO `json:"sessions"`
}

// GetTeachersSchedules returns sessions in a range grouped per teacher.
func (sc *ScheduleController) GetTeachersSchedules(c *fiber.Ctx) error {
	from, err := parseDateParam(c.Query("date_from", time.Now().Format("2006-01-02")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_from must be YYYY-MM-DD"})
	}
	to := from.AddDate(0, 0, 6)
	if toStr := c.Query("date_to"); toStr != "" {
		if d, err := parseDateParam(toStr); err == nil {
			to = d
		}
	}

	var sessions []models.Session
	if err := database.DB.Preload("Schedule").Preload("Schedule.DefaultTeacher").
		Joins("JOIN schedules ON schedules.id = sessions.schedule_id").
		Where("schedules.default_teacher_id IS NOT NULL").
		Where("sessions.session_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("sessions.session_date ASC, sessions.start_time ASC").
		Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}

	grouped := make(map[uint]*teacherDayGroup)
	for _, s := range sessions {
		if s.Schedule.DefaultTeacherID == nil {
			continue
		}
		tid := *s.Schedule.DefaultTeacherID
		group, ok := grouped[tid]
		if !ok {
			name := ""
			if s.Schedule.DefaultTeacher != nil {
				name = s.Schedule.DefaultTeacher.Username
			}
			group = &teacherDayGroup{TeacherID: tid, TeacherName: name}
			grouped[tid] = group
		}
		group.Sessions = append(group.Sessions, utils.ToSessionDTO(s))
	}

	teachers := make([]*teacherDayGroup, 0, len(grouped))
	for _, g := range grouped {
		teachers = append(teachers, g)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].TeacherID < teachers[j].TeacherID })

	return c.JSON(fiber.Map{
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
		"teachers": teachers,
	})
}

// ExportSessions writes a schedule's sessions as an xlsx download.
func (sc *ScheduleController) ExportSessions(c *fiber.Ctx) error {
	scheduleID := c.Params("id")

	var schedule models.Schedule
	if err := database.DB.Preload("Course").First(&schedule, scheduleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	var sessions []models.Session
	if err := database.DB.Where("schedule_id = ?", schedule.ID).
		Order("session_date ASC, start_time ASC").Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sessions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"#", "Date", "Week", "Start", "End", "Status", "Makeup", "Cancellation Reason", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, s := range sessions {
		row := i + 2
		values := []interface{}{
			s.SessionNumber,
			s.SessionDate.Format("2006-01-02"),
			s.WeekNumber,
			s.StartTime,
			s.EndTime,
			s.Status,
			s.IsMakeupSession,
			s.CancellationReason,
			s.Notes,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("schedule_%d_sessions.xlsx", schedule.ID)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

	if _, err := f.WriteTo(c.Response().BodyWriter()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write export"})
	}
	return nil
}

type CreateMakeupRequest struct {
	OriginalSessionID uint   `json:"original_session_id" validate:"required"`
	NewDate           string `json:"new_date" validate:"required"`
	NewStartTime      string `json:"new_start_time" validate:"required"`
	NewEndTime        string `json:"new_end_time" validate:"required"`
}

// CreateMakeupSession schedules the single makeup allowed for a cancelled session.
func (sc *ScheduleController) CreateMakeupSession(c *fiber.Ctx) error {
	scheduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	var req CreateMakeupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	newDate, err := parseDateParam(req.NewDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "new_date must be YYYY-MM-DD"})
	}
	startTime, err := normalizeHourMinute(req.NewStartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	endTime, err := normalizeHourMinute(req.NewEndTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	makeup, err := services.CreateMakeupSession(database.DB, services.MakeupRequest{
		ScheduleID:        uint(scheduleID),
		OriginalSessionID: req.OriginalSessionID,
		NewDate:           newDate,
		NewStartTime:      startTime,
		NewEndTime:        endTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOriginalNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrOriginalWrongSchedule),
			errors.Is(err, services.ErrOriginalNotCancelled):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrMakeupExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create makeup session"})
		}
	}

	middleware.LogActivity(c, "CREATE", "makeup_sessions", makeup.ID, fiber.Map{
		"original_session_id": req.OriginalSessionID,
	})

	notifyScheduleTeacher(uint(scheduleID),
		"Makeup session scheduled",
		"มีคาบเรียนชดเชยใหม่",
		fmt.Sprintf("A makeup session was scheduled for %s %s-%s", req.NewDate, startTime, endTime),
		fmt.Sprintf("มีการนัดคาบเรียนชดเชยวันที่ %s เวลา %s-%s", req.NewDate, startTime, endTime),
		"info")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Makeup session created",
		"session": makeup,
	})
}

// GetMakeupSessions lists makeups joined with the originals they replace.
func (sc *ScheduleController) GetMakeupSessions(c *fiber.Ctx) error {
	q := services.MakeupQuery{
		Status:   c.Query("status"),
		SortBy:   c.Query("sort_by", "session_date"),
		SortDesc: c.Query("order") == "desc",
	}
	if scheduleID := c.Query("schedule_id"); scheduleID != "" {
		if id, err := strconv.ParseUint(scheduleID, 10, 32); err == nil {
			sid := uint(id)
			q.ScheduleID = &sid
		}
	}
	if from := c.Query("date_from"); from != "" {
		if d, err := parseDateParam(from); err == nil {
			q.DateFrom = &d
		}
	}
	if to := c.Query("date_to"); to != "" {
		if d, err := parseDateParam(to); err == nil {
			q.DateTo = &d
		}
	}

	makeups, err := services.ListMakeupSessions(database.DB, q)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch makeup sessions"})
	}

	return c.JSON(fiber.Map{"makeup_sessions": makeups, "total": len(makeups)})
}

// AddComment attaches a comment to a session or a whole schedule.
func (sc *ScheduleController) AddComment(c *fiber.Ctx) error {
	var req struct {
		ScheduleID *uint  `json:"schedule_id"`
		SessionID  *uint  `json:"session_id"`
		Comment    string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Comment) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "comment is required"})
	}
	if req.ScheduleID == nil && req.SessionID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "schedule_id or session_id is required"})
	}

	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if req.SessionID != nil {
		var session models.Session
		if err := database.DB.First(&session, *req.SessionID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		}
		if req.ScheduleID == nil {
			req.ScheduleID = &session.ScheduleID
		}
	}

	comment := models.SessionComment{
		ScheduleID: req.ScheduleID,
		SessionID:  req.SessionID,
		UserID:     user.ID,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create comment"})
	}

	// Let admins know someone annotated the calendar
	go func() {
		var adminIDs []uint
		if err := database.DB.Model(&models.User{}).
			Where("role IN ? AND status = ?", []string{"owner", "admin"}, "active").
			Pluck("id", &adminIDs).Error; err != nil || len(adminIDs) == 0 {
			return
		}
		svc := notifsvc.NewService()
		_ = svc.EnqueueOrCreate(adminIDs, notifsvc.Queued(
			"New session comment",
			"มีความคิดเห็นใหม่",
			fmt.Sprintf("%s commented on a session", user.Username),
			fmt.Sprintf("%s แสดงความคิดเห็นในคาบเรียน", user.Username),
			"info",
		))
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Comment added", "comment": comment})
}

// GetComments lists comments for a session or schedule.
func (sc *ScheduleController) GetComments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.SessionComment{}).Preload("User")

	if sessionID := c.Query("session_id"); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	} else if scheduleID := c.Query("schedule_id"); scheduleID != "" {
		query = query.Where("schedule_id = ?", scheduleID)
	} else {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id or schedule_id is required"})
	}

	var comments []models.SessionComment
	if err := query.Order("created_at ASC").Find(&comments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch comments"})
	}

	return c.JSON(fiber.Map{"comments": comments, "total": len(comments)})
}
