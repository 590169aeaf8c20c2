package services

import (
	"time"

	"pattana_go/models"

	"gorm.io/gorm"
)

// Conflict kinds
const (
	ConflictKindTeacher = "teacher"
	ConflictKindRoom    = "room"
)

// ConflictCheck describes one candidate time window to test.
// Teacher and room are optional; each that is present gets its own scan.
type ConflictCheck struct {
	TeacherID        *uint
	RoomID           *uint
	Date             time.Time
	StartTime        string // "15:04"
	EndTime          string
	ExcludeSessionID *uint // set when editing an existing session
}

// SessionConflict is one collision, carrying the session that collides.
type SessionConflict struct {
	Kind    string         `json:"kind"` // teacher, room
	Session models.Session `json:"session"`
}

// timesOverlap reports whether two half-open windows [s1,e1) and [s2,e2)
// collide. Windows that merely touch at a boundary do not conflict.
// Zero-padded "15:04" strings compare correctly lexicographically.
func timesOverlap(s1, e1, s2, e2 string) bool {
	return s1 < e2 && s2 < e1
}

// DetectConflicts scans existing non-cancelled sessions on the candidate date
// for the same teacher and/or the same room, and returns every collision as a
// structured list split by kind. An empty list means no conflict.
// Teacher/room are canonical on the schedule, so the scan joins through it.
func DetectConflicts(db *gorm.DB, check ConflictCheck) ([]SessionConflict, error) {
	var conflicts []SessionConflict

	if check.TeacherID != nil {
		sessions, err := sessionsOn(db, check, "schedules.default_teacher_id = ?", *check.TeacherID)
		if err != nil {
			return nil, err
		}
		for _, s := range sessions {
			if timesOverlap(check.StartTime, check.EndTime, s.StartTime, s.EndTime) {
				conflicts = append(conflicts, SessionConflict{Kind: ConflictKindTeacher, Session: s})
			}
		}
	}

	if check.RoomID != nil {
		sessions, err := sessionsOn(db, check, "schedules.default_room_id = ?", *check.RoomID)
		if err != nil {
			return nil, err
		}
		for _, s := range sessions {
			if timesOverlap(check.StartTime, check.EndTime, s.StartTime, s.EndTime) {
				conflicts = append(conflicts, SessionConflict{Kind: ConflictKindRoom, Session: s})
			}
		}
	}

	return conflicts, nil
}

func sessionsOn(db *gorm.DB, check ConflictCheck, cond string, arg interface{}) ([]models.Session, error) {
	var sessions []models.Session
	query := db.Model(&models.Session{}).
		Joins("JOIN schedules ON schedules.id = sessions.schedule_id").
		Where(cond, arg).
		Where("DATE(sessions.session_date) = ?", check.Date.Format("2006-01-02")).
		Where("sessions.status <> ?", "cancelled").
		Preload("Schedule")

	if check.ExcludeSessionID != nil {
		query = query.Where("sessions.id <> ?", *check.ExcludeSessionID)
	}

	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
