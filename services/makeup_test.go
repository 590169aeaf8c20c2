package services

import (
	"errors"
	"testing"
	"time"

	"pattana_go/models"

	"gorm.io/gorm"
)

func seedCancelledSession(t *testing.T, db *gorm.DB, scheduleID uint) models.Session {
	t.Helper()

	session := models.Session{
		ScheduleID:         scheduleID,
		SessionDate:        date(2026, time.March, 3),
		SessionNumber:      5,
		WeekNumber:         3,
		StartTime:          "10:00",
		EndTime:            "12:00",
		Status:             "cancelled",
		CancellationReason: "public holiday",
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed cancelled session: %v", err)
	}
	return session
}

// Each cancelled session gets at most one makeup, and the makeup carries the
// original's position in the course.
func TestCreateMakeupSessionOneToOne(t *testing.T) {
	db := newTestDB(t)
	original := seedCancelledSession(t, db, 1)

	req := MakeupRequest{
		ScheduleID:        1,
		OriginalSessionID: original.ID,
		NewDate:           date(2026, time.March, 10),
		NewStartTime:      "13:00",
		NewEndTime:        "15:00",
	}

	makeup, err := CreateMakeupSession(db, req)
	if err != nil {
		t.Fatalf("CreateMakeupSession: %v", err)
	}
	if !makeup.IsMakeupSession {
		t.Error("makeup should be flagged is_makeup_session")
	}
	if makeup.MakeupForSessionID == nil || *makeup.MakeupForSessionID != original.ID {
		t.Errorf("makeup_for_session_id = %v, want %d", makeup.MakeupForSessionID, original.ID)
	}
	if makeup.SessionNumber != original.SessionNumber || makeup.WeekNumber != original.WeekNumber {
		t.Errorf("makeup position = %d/%d, want %d/%d",
			makeup.SessionNumber, makeup.WeekNumber, original.SessionNumber, original.WeekNumber)
	}
	if makeup.Status != "scheduled" {
		t.Errorf("makeup status = %q, want scheduled", makeup.Status)
	}

	if _, err := CreateMakeupSession(db, req); !errors.Is(err, ErrMakeupExists) {
		t.Fatalf("second makeup err = %v, want ErrMakeupExists", err)
	}
}

func TestCreateMakeupSessionRejectsBadOriginal(t *testing.T) {
	db := newTestDB(t)
	cancelled := seedCancelledSession(t, db, 1)
	scheduled := models.Session{
		ScheduleID:  1,
		SessionDate: date(2026, time.March, 5),
		StartTime:   "10:00",
		EndTime:     "12:00",
		Status:      "scheduled",
	}
	if err := db.Create(&scheduled).Error; err != nil {
		t.Fatalf("seed scheduled session: %v", err)
	}

	tests := []struct {
		name string
		req  MakeupRequest
		want error
	}{
		{"missing original", MakeupRequest{ScheduleID: 1, OriginalSessionID: 9999}, ErrOriginalNotFound},
		{"wrong schedule", MakeupRequest{ScheduleID: 2, OriginalSessionID: cancelled.ID}, ErrOriginalWrongSchedule},
		{"original still scheduled", MakeupRequest{ScheduleID: 1, OriginalSessionID: scheduled.ID}, ErrOriginalNotCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CreateMakeupSession(db, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
