package utils

import (
	"strings"
	"time"

	"pattana_go/models"
)

// Compact representations used across APIs
type UserShort struct {
	ID          uint   `json:"id"`
	FirstNameEn string `json:"first_name_en,omitempty"`
	FirstNameTh string `json:"first_name_th,omitempty"`
	LastNameEn  string `json:"last_name_en,omitempty"`
	LastNameTh  string `json:"last_name_th,omitempty"`
}

type BranchShort struct {
	ID     uint   `json:"id"`
	NameEn string `json:"name_en,omitempty"`
	NameTh string `json:"name_th,omitempty"`
}

type NotificationDTO struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	UserID    uint        `json:"user_id"`
	Title     string      `json:"title"`
	TitleTh   string      `json:"title_th,omitempty"`
	Message   string      `json:"message"`
	MessageTh string      `json:"message_th,omitempty"`
	Type      string      `json:"type"`
	Read      bool        `json:"read"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
	User      UserShort   `json:"user"`
	Branch    BranchShort `json:"branch"`
}

// SessionDTO is the compact session shape returned by calendar and list endpoints.
type SessionDTO struct {
	ID                 uint       `json:"id"`
	ScheduleID         uint       `json:"schedule_id"`
	ScheduleName       string     `json:"schedule_name,omitempty"`
	SessionDate        string     `json:"session_date"`
	SessionNumber      int        `json:"session_number"`
	WeekNumber         int        `json:"week_number"`
	StartTime          string     `json:"start_time"`
	EndTime            string     `json:"end_time"`
	Status             string     `json:"status"`
	IsMakeupSession    bool       `json:"is_makeup_session"`
	MakeupForSessionID *uint      `json:"makeup_for_session_id,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ToSessionDTO maps a models.Session to the compact DTO.
// Assumption: caller preloaded Schedule when the schedule name should appear.
func ToSessionDTO(s models.Session) SessionDTO {
	dto := SessionDTO{
		ID:                 s.ID,
		ScheduleID:         s.ScheduleID,
		SessionDate:        s.SessionDate.Format("2006-01-02"),
		SessionNumber:      s.SessionNumber,
		WeekNumber:         s.WeekNumber,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		Status:             s.Status,
		IsMakeupSession:    s.IsMakeupSession,
		MakeupForSessionID: s.MakeupForSessionID,
		CancellationReason: s.CancellationReason,
		Notes:              s.Notes,
		CreatedAt:          s.CreatedAt,
	}
	if s.Schedule.ID != 0 {
		dto.ScheduleName = s.Schedule.ScheduleName
	}
	return dto
}

func ToSessionDTOs(sessions []models.Session) []SessionDTO {
	out := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToSessionDTO(s))
	}
	return out
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
// Assumption: caller has preloaded User, User.Student, User.Teacher and User.Branch.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	var us UserShort
	var bs BranchShort

	// Prefer the profile name over the bare username
	if n.User.Student != nil {
		us = UserShort{
			ID:          n.User.ID,
			FirstNameEn: n.User.Student.FirstNameEn,
			FirstNameTh: n.User.Student.FirstName,
			LastNameEn:  n.User.Student.LastNameEn,
			LastNameTh:  n.User.Student.LastName,
		}
	} else if n.User.Teacher != nil {
		us = UserShort{
			ID:          n.User.ID,
			FirstNameEn: n.User.Teacher.FirstNameEn,
			FirstNameTh: n.User.Teacher.FirstNameTh,
			LastNameEn:  n.User.Teacher.LastNameEn,
			LastNameTh:  n.User.Teacher.LastNameTh,
		}
	} else {
		name := n.User.Username
		if name == "" && n.User.Email != "" {
			parts := strings.Split(n.User.Email, "@")
			name = parts[0]
		}
		parts := strings.Fields(name)
		fname := ""
		lname := ""
		if len(parts) > 0 {
			fname = parts[0]
		}
		if len(parts) > 1 {
			lname = strings.Join(parts[1:], " ")
		}
		us = UserShort{ID: n.User.ID, FirstNameEn: fname, LastNameEn: lname, FirstNameTh: fname, LastNameTh: lname}
	}

	// Keep both language fields populated so clients never render a blank name
	if us.FirstNameEn == "" && us.FirstNameTh != "" {
		us.FirstNameEn = us.FirstNameTh
	}
	if us.FirstNameTh == "" && us.FirstNameEn != "" {
		us.FirstNameTh = us.FirstNameEn
	}
	if us.LastNameEn == "" && us.LastNameTh != "" {
		us.LastNameEn = us.LastNameTh
	}
	if us.LastNameTh == "" && us.LastNameEn != "" {
		us.LastNameTh = us.LastNameEn
	}

	if n.User.Branch.ID != 0 {
		bs = BranchShort{ID: n.User.Branch.ID, NameEn: n.User.Branch.NameEn, NameTh: n.User.Branch.NameTh}
	}

	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		UserID:    n.UserID,
		Title:     n.Title,
		TitleTh:   n.TitleTh,
		Message:   n.Message,
		MessageTh: n.MessageTh,
		Type:      n.Type,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		User:      us,
		Branch:    bs,
	}
}
