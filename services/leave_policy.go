package services

import (
	"errors"
	"time"

	"pattana_go/models"

	"gorm.io/gorm"
)

const (
	// Private classes need at least this much advance notice for a leave.
	leaveAdvanceNotice = 24 * time.Hour
	// At most this many drops per (schedule, student), ever.
	maxCourseDrops = 2
)

var (
	ErrNotEnrolled           = errors.New("student has no active enrollment in this schedule")
	ErrNoSessionOnDate       = errors.New("no session scheduled on the requested leave date")
	ErrLeaveQuotaExceeded    = errors.New("leave quota for this schedule has been used up")
	ErrAdvanceNoticeRequired = errors.New("private class leave requires at least 24 hours advance notice")
	ErrDropLimitReached      = errors.New("drop limit reached for this schedule")
	ErrReturnDateRequired    = errors.New("temporary drop requires expected_return_date")
)

// Entitlement is how many leaves and makeups a student gets on one schedule.
type Entitlement struct {
	Leaves  int `json:"leaves"`
	Makeups int `json:"makeups"`
}

// EntitlementFor resolves the policy table keyed by class size and course
// hours. โควต้าลาตามขนาดคลาสและชั่วโมงรวมของคอร์ส
//
//	private 40/50h → 1 leave / 1 makeup
//	private 60h    → 3 leaves / 2 makeups
//	group 40/50h   → 0 leaves / 1 makeup
//	group 60h      → 0 leaves / 2 makeups
//
// Young private students (< 10 years) on short courses get 3 leaves.
func EntitlementFor(isPrivate bool, totalHours, studentAge int) Entitlement {
	var ent Entitlement
	longCourse := totalHours >= 60
	if isPrivate {
		if longCourse {
			ent = Entitlement{Leaves: 3, Makeups: 2}
		} else {
			ent = Entitlement{Leaves: 1, Makeups: 1}
		}
		if studentAge > 0 && studentAge < 10 && !longCourse {
			ent.Leaves = 3
		}
	} else {
		if longCourse {
			ent = Entitlement{Leaves: 0, Makeups: 2}
		} else {
			ent = Entitlement{Leaves: 0, Makeups: 1}
		}
	}
	return ent
}

// LeaveRequest is one student asking to miss the session on LeaveDate.
type LeaveRequest struct {
	ScheduleID uint
	StudentID  uint
	LeaveDate  time.Time
	Reason     string
}

// LeaveDecision reports what the policy engine recorded.
type LeaveDecision struct {
	IsPrivateClass      bool        `json:"is_private_class"`
	Entitlement         Entitlement `json:"entitlement"`
	UsedLeaves          int         `json:"used_leaves"`
	AttendanceStatus    string      `json:"attendance_status"`
	AttendanceRecordID  uint        `json:"attendance_record_id"`
	MakeupEligibilityID uint        `json:"makeup_eligibility_id,omitempty"`
}

// IsPrivateClass: exactly one active enrollment makes a schedule private.
func IsPrivateClass(db *gorm.DB, scheduleID uint) (bool, int64, error) {
	var active int64
	err := db.Model(&models.Enrollment{}).
		Where("schedule_id = ? AND status = ?", scheduleID, "active").
		Count(&active).Error
	return active == 1, active, err
}

// SubmitLeaveRequest validates and records one leave. Private classes enforce
// the 24-hour notice and the entitlement quota; group classes are never denied
// on quota but always leave a pending makeup-eligibility record behind.
func SubmitLeaveRequest(db *gorm.DB, req LeaveRequest, now time.Time) (*LeaveDecision, error) {
	var enrollment models.Enrollment
	if err := db.Where("schedule_id = ? AND student_id = ? AND status = ?",
		req.ScheduleID, req.StudentID, "active").First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	var schedule models.Schedule
	if err := db.First(&schedule, req.ScheduleID).Error; err != nil {
		return nil, err
	}

	isPrivate, _, err := IsPrivateClass(db, req.ScheduleID)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := db.Where("schedule_id = ? AND DATE(session_date) = ? AND status = ?",
		req.ScheduleID, req.LeaveDate.Format("2006-01-02"), "scheduled").
		Order("start_time ASC").First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSessionOnDate
		}
		return nil, err
	}

	age := studentAgeAt(db, req.StudentID, now)
	ent := EntitlementFor(isPrivate, schedule.TotalHours, age)

	decision := &LeaveDecision{IsPrivateClass: isPrivate, Entitlement: ent}

	if isPrivate {
		if sessionStart(session).Sub(now) < leaveAdvanceNotice {
			return nil, ErrAdvanceNoticeRequired
		}

		used, err := usedLeaveCount(db, req.ScheduleID, req.StudentID)
		if err != nil {
			return nil, err
		}
		decision.UsedLeaves = used
		if used >= ent.Leaves {
			return nil, ErrLeaveQuotaExceeded
		}
		decision.AttendanceStatus = "approved_leave"
	} else {
		// กลุ่มไม่มีโควต้าลาให้หมด บันทึกขาดแบบมีเหตุและให้สิทธิ์ชดเชยรอไว้
		decision.AttendanceStatus = "excused_absence"
	}

	record := models.AttendanceRecord{
		SessionID: session.ID,
		StudentID: req.StudentID,
		Status:    decision.AttendanceStatus,
		Note:      req.Reason,
	}
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	decision.AttendanceRecordID = record.ID

	if !isPrivate {
		eligibility := models.MakeupEligibility{
			ScheduleID: req.ScheduleID,
			StudentID:  req.StudentID,
			SessionID:  session.ID,
			Status:     "pending",
			Reason:     req.Reason,
		}
		if err := db.Create(&eligibility).Error; err != nil {
			return nil, err
		}
		decision.MakeupEligibilityID = eligibility.ID
	}

	return decision, nil
}

// DropRequest is one student leaving (temporarily or for good).
type DropRequest struct {
	ScheduleID         uint
	StudentID          uint
	DropType           string // temporary, permanent
	DropDate           time.Time
	ExpectedReturnDate *time.Time
	PreserveSchedule   bool
	Reason             string
}

// SubmitDrop records a course drop and flags the student's future scheduled
// sessions as course_dropped. Temporary drops only cover the absence window:
// sessions on or after expected_return_date stay untouched. Unless the drop
// preserves the schedule, the enrollment is paused (temporary) or cancelled
// (permanent). Other students on the schedule are unaffected.
func SubmitDrop(db *gorm.DB, req DropRequest) (*models.CourseDrop, int, error) {
	if req.DropType == "temporary" && req.ExpectedReturnDate == nil {
		return nil, 0, ErrReturnDateRequired
	}

	var prior int64
	if err := db.Model(&models.CourseDrop{}).
		Where("schedule_id = ? AND student_id = ?", req.ScheduleID, req.StudentID).
		Count(&prior).Error; err != nil {
		return nil, 0, err
	}
	if prior >= maxCourseDrops {
		return nil, 0, ErrDropLimitReached
	}

	drop := models.CourseDrop{
		ScheduleID:         req.ScheduleID,
		StudentID:          req.StudentID,
		DropType:           req.DropType,
		DropDate:           truncateToDate(req.DropDate),
		ExpectedReturnDate: req.ExpectedReturnDate,
		PreserveSchedule:   req.PreserveSchedule,
		Reason:             req.Reason,
	}
	if err := db.Create(&drop).Error; err != nil {
		return nil, 0, err
	}

	if !req.PreserveSchedule {
		enrollStatus := "paused"
		if req.DropType == "permanent" {
			enrollStatus = "cancelled"
		}
		if err := db.Model(&models.Enrollment{}).
			Where("schedule_id = ? AND student_id = ? AND status = ?", req.ScheduleID, req.StudentID, "active").
			Update("status", enrollStatus).Error; err != nil {
			return &drop, 0, err
		}
	}

	futureQuery := db.Where("schedule_id = ? AND session_date >= ? AND status = ?",
		req.ScheduleID, req.DropDate.Format("2006-01-02"), "scheduled")
	if req.DropType == "temporary" && req.ExpectedReturnDate != nil {
		futureQuery = futureQuery.Where("session_date < ?", req.ExpectedReturnDate.Format("2006-01-02"))
	}

	var future []models.Session
	if err := futureQuery.Find(&future).Error; err != nil {
		return &drop, 0, err
	}

	flagged := 0
	for _, s := range future {
		record := models.AttendanceRecord{
			SessionID: s.ID,
			StudentID: req.StudentID,
			Status:    "course_dropped",
			Note:      req.Reason,
		}
		if err := db.Create(&record).Error; err != nil {
			return &drop, flagged, err
		}
		flagged++
	}

	return &drop, flagged, nil
}

// EntitlementSummary is the read-only quota view for one (schedule, student).
type EntitlementSummary struct {
	IsPrivateClass bool        `json:"is_private_class"`
	ActiveStudents int64       `json:"active_students"`
	Entitlement    Entitlement `json:"entitlement"`
	UsedLeaves     int         `json:"used_leaves"`
	PendingMakeups int64       `json:"pending_makeups"`
}

// EntitlementSummaryFor resolves the quota a student currently holds on a
// schedule, without recording anything.
func EntitlementSummaryFor(db *gorm.DB, scheduleID, studentID uint, now time.Time) (*EntitlementSummary, error) {
	var schedule models.Schedule
	if err := db.First(&schedule, scheduleID).Error; err != nil {
		return nil, err
	}

	isPrivate, active, err := IsPrivateClass(db, scheduleID)
	if err != nil {
		return nil, err
	}

	used, err := usedLeaveCount(db, scheduleID, studentID)
	if err != nil {
		return nil, err
	}

	var pending int64
	if err := db.Model(&models.MakeupEligibility{}).
		Where("schedule_id = ? AND student_id = ? AND status = ?", scheduleID, studentID, "pending").
		Count(&pending).Error; err != nil {
		return nil, err
	}

	age := studentAgeAt(db, studentID, now)
	return &EntitlementSummary{
		IsPrivateClass: isPrivate,
		ActiveStudents: active,
		Entitlement:    EntitlementFor(isPrivate, schedule.TotalHours, age),
		UsedLeaves:     used,
		PendingMakeups: pending,
	}, nil
}

func usedLeaveCount(db *gorm.DB, scheduleID, studentID uint) (int, error) {
	var used int64
	err := db.Model(&models.AttendanceRecord{}).
		Joins("JOIN sessions ON sessions.id = attendance_records.session_id").
		Where("sessions.schedule_id = ?", scheduleID).
		Where("attendance_records.student_id = ?", studentID).
		Where("attendance_records.status = ?", "approved_leave").
		Count(&used).Error
	return int(used), err
}

func studentAgeAt(db *gorm.DB, studentID uint, now time.Time) int {
	var student models.Student
	if err := db.First(&student, studentID).Error; err != nil {
		return 0
	}
	if student.DateOfBirth != nil {
		age := now.Year() - student.DateOfBirth.Year()
		if now.YearDay() < student.DateOfBirth.YearDay() {
			age--
		}
		return age
	}
	return student.Age
}

func sessionStart(s models.Session) time.Time {
	t, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return s.SessionDate
	}
	d := s.SessionDate
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
}
