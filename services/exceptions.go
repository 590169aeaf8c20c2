package services

import (
	"errors"
	"fmt"

	"pattana_go/models"

	"gorm.io/gorm"
)

// Exception types
const (
	ExceptionCancellation  = "cancellation"
	ExceptionReschedule    = "reschedule"
	ExceptionTeacherChange = "teacher_change"
	ExceptionRoomChange    = "room_change"
	ExceptionTimeChange    = "time_change"
)

var (
	// ErrDuplicateException: at most one exception per (schedule, date).
	ErrDuplicateException = errors.New("an exception already exists for this schedule and date")
	// ErrScheduleLevelException: teacher/room live on the schedule, not the
	// session, so those exception types cannot be applied to sessions.
	ErrScheduleLevelException = errors.New("teacher and room changes must be applied at the schedule level")
	// ErrNewDateRequired for reschedule exceptions without a target date
	ErrNewDateRequired = errors.New("reschedule exception requires new_date")
)

// CreateException validates and stores a dated exception. The uniqueness
// precondition, no existing exception for (schedule_id, exception_date), is
// checked before any side effect.
func CreateException(db *gorm.DB, exc *models.ScheduleException) error {
	switch exc.ExceptionType {
	case ExceptionCancellation, ExceptionTimeChange:
	case ExceptionReschedule:
		if exc.NewDate == nil {
			return ErrNewDateRequired
		}
	case ExceptionTeacherChange, ExceptionRoomChange:
		return ErrScheduleLevelException
	default:
		return fmt.Errorf("invalid exception type %q", exc.ExceptionType)
	}

	var count int64
	if err := db.Model(&models.ScheduleException{}).
		Where("schedule_id = ? AND exception_date = ?", exc.ScheduleID, exc.ExceptionDate.Format("2006-01-02")).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateException
	}

	return db.Create(exc).Error
}

// ApplyException mutates the sessions an exception targets and returns the
// affected-row count. sessionID narrows the batch to one explicit session;
// nil targets every session of the schedule on the exception date.
//
// Re-applying an exception against freshly regenerated sessions is idempotent:
// the WHERE clauses exclude rows already in the target state, so a replay
// touches zero rows.
// เทียบวันที่ผ่าน DATE() เสมอ จะเก็บเป็น date หรือ datetime ก็ match เหมือนกัน
func ApplyException(db *gorm.DB, exc *models.ScheduleException, sessionID *uint) (int64, error) {
	base := db.Model(&models.Session{}).
		Where("schedule_id = ? AND DATE(session_date) = ?", exc.ScheduleID, exc.ExceptionDate.Format("2006-01-02"))
	if sessionID != nil {
		base = base.Where("id = ?", *sessionID)
	}

	switch exc.ExceptionType {
	case ExceptionCancellation:
		res := base.Where("status <> ?", "cancelled").
			Updates(map[string]interface{}{
				"status":              "cancelled",
				"cancellation_reason": exc.Reason,
			})
		return res.RowsAffected, res.Error

	case ExceptionReschedule:
		if exc.NewDate == nil {
			return 0, ErrNewDateRequired
		}
		updates := map[string]interface{}{
			"session_date": exc.NewDate.Format("2006-01-02"),
			"notes":        fmt.Sprintf("rescheduled from %s", exc.ExceptionDate.Format("2006-01-02")),
		}
		if exc.NewStartTime != "" {
			updates["start_time"] = exc.NewStartTime
		}
		if exc.NewEndTime != "" {
			updates["end_time"] = exc.NewEndTime
		}
		res := base.Where("status <> ?", "cancelled").Updates(updates)
		return res.RowsAffected, res.Error

	case ExceptionTimeChange:
		if exc.NewStartTime == "" || exc.NewEndTime == "" {
			return 0, fmt.Errorf("time_change exception requires new_start_time and new_end_time")
		}
		res := base.Where("start_time <> ? OR end_time <> ?", exc.NewStartTime, exc.NewEndTime).
			Updates(map[string]interface{}{
				"start_time": exc.NewStartTime,
				"end_time":   exc.NewEndTime,
			})
		return res.RowsAffected, res.Error

	case ExceptionTeacherChange, ExceptionRoomChange:
		return 0, ErrScheduleLevelException

	default:
		return 0, fmt.Errorf("invalid exception type %q", exc.ExceptionType)
	}
}
