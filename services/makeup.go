package services

import (
	"errors"
	"time"

	"pattana_go/models"

	"gorm.io/gorm"
)

var (
	ErrOriginalNotFound     = errors.New("original session not found")
	ErrOriginalWrongSchedule = errors.New("original session does not belong to this schedule")
	ErrOriginalNotCancelled = errors.New("only cancelled sessions can receive a makeup session")
	// ErrMakeupExists: the original↔makeup mapping is 1:1 in both directions.
	ErrMakeupExists = errors.New("a makeup session already exists for this session")
)

// MakeupRequest describes the replacement slot for one cancelled original.
type MakeupRequest struct {
	ScheduleID        uint
	OriginalSessionID uint
	NewDate           time.Time
	NewStartTime      string // "15:04"
	NewEndTime        string
}

// MakeupWithOriginal joins a makeup session with the original it replaces.
type MakeupWithOriginal struct {
	SessionID          uint   `json:"session_id" gorm:"column:session_id"`
	ScheduleID         uint   `json:"schedule_id" gorm:"column:schedule_id"`
	SessionDate        string `json:"session_date" gorm:"column:session_date"`
	StartTime          string `json:"start_time" gorm:"column:start_time"`
	EndTime            string `json:"end_time" gorm:"column:end_time"`
	Status             string `json:"status" gorm:"column:status"`
	OriginalSessionID  uint   `json:"original_session_id" gorm:"column:original_session_id"`
	OriginalDate       string `json:"original_date" gorm:"column:original_date"`
	OriginalStartTime  string `json:"original_start_time" gorm:"column:original_start_time"`
	OriginalEndTime    string `json:"original_end_time" gorm:"column:original_end_time"`
	CancellationReason string `json:"cancellation_reason" gorm:"column:cancellation_reason"`
}

// MakeupQuery filters/sorts the makeup listing.
type MakeupQuery struct {
	ScheduleID *uint
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string // session_date, original_date, created_at
	SortDesc   bool
}

// CreateMakeupSession creates the one makeup session allowed for a cancelled
// original. The new session inherits the original's session_number and
// week_number so progress accounting is preserved, with a new date/time.
func CreateMakeupSession(db *gorm.DB, req MakeupRequest) (*models.Session, error) {
	var original models.Session
	if err := db.First(&original, req.OriginalSessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOriginalNotFound
		}
		return nil, err
	}
	if original.ScheduleID != req.ScheduleID {
		return nil, ErrOriginalWrongSchedule
	}
	if original.Status != "cancelled" {
		return nil, ErrOriginalNotCancelled
	}

	var count int64
	if err := db.Model(&models.Session{}).
		Where("makeup_for_session_id = ?", original.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrMakeupExists
	}

	makeup := models.Session{
		ScheduleID:         original.ScheduleID,
		TimeSlotID:         original.TimeSlotID,
		SessionDate:        truncateToDate(req.NewDate),
		SessionNumber:      original.SessionNumber,
		WeekNumber:         original.WeekNumber,
		StartTime:          req.NewStartTime,
		EndTime:            req.NewEndTime,
		Status:             "scheduled",
		IsMakeupSession:    true,
		MakeupForSessionID: &original.ID,
	}
	if err := db.Create(&makeup).Error; err != nil {
		return nil, err
	}
	return &makeup, nil
}

// ListMakeupSessions returns makeup sessions joined with their original's
// date/time and cancellation reason, filterable and sortable.
func ListMakeupSessions(db *gorm.DB, q MakeupQuery) ([]MakeupWithOriginal, error) {
	sortColumn := "makeups.session_date"
	switch q.SortBy {
	case "original_date":
		sortColumn = "originals.session_date"
	case "created_at":
		sortColumn = "makeups.created_at"
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	query := db.Table("sessions AS makeups").
		Select(`makeups.id AS session_id, makeups.schedule_id, makeups.session_date,
			makeups.start_time, makeups.end_time, makeups.status,
			originals.id AS original_session_id, originals.session_date AS original_date,
			originals.start_time AS original_start_time, originals.end_time AS original_end_time,
			originals.cancellation_reason`).
		Joins("JOIN sessions AS originals ON originals.id = makeups.makeup_for_session_id").
		Where("makeups.is_makeup_session = ?", true).
		Where("makeups.deleted_at IS NULL")

	if q.ScheduleID != nil {
		query = query.Where("makeups.schedule_id = ?", *q.ScheduleID)
	}
	if q.Status != "" {
		query = query.Where("makeups.status = ?", q.Status)
	}
	if q.DateFrom != nil {
		query = query.Where("makeups.session_date >= ?", q.DateFrom.Format("2006-01-02"))
	}
	if q.DateTo != nil {
		query = query.Where("makeups.session_date <= ?", q.DateTo.Format("2006-01-02"))
	}

	var rows []MakeupWithOriginal
	if err := query.Order(sortColumn + " " + direction).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
