package services

import (
	"errors"
	"testing"
	"time"

	"pattana_go/models"
)

// Validation runs before any query, so the rejection paths need no database.
func TestCreateExceptionTypeDispatch(t *testing.T) {
	day := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		exc     models.ScheduleException
		wantErr error
	}{
		{
			"teacher change is schedule level",
			models.ScheduleException{ScheduleID: 1, ExceptionDate: day, ExceptionType: ExceptionTeacherChange},
			ErrScheduleLevelException,
		},
		{
			"room change is schedule level",
			models.ScheduleException{ScheduleID: 1, ExceptionDate: day, ExceptionType: ExceptionRoomChange},
			ErrScheduleLevelException,
		},
		{
			"reschedule without new date",
			models.ScheduleException{ScheduleID: 1, ExceptionDate: day, ExceptionType: ExceptionReschedule},
			ErrNewDateRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exc := tt.exc
			err := CreateException(nil, &exc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateException() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateExceptionRejectsUnknownType(t *testing.T) {
	exc := models.ScheduleException{
		ScheduleID:    1,
		ExceptionDate: time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		ExceptionType: "holiday_party",
	}
	if err := CreateException(nil, &exc); err == nil {
		t.Fatal("expected an error for an unknown exception type")
	}
}

// Replaying an exception against sessions already in the target state must
// touch zero rows, so regenerating sessions and re-applying is safe.
func TestApplyExceptionReplayTouchesNothing(t *testing.T) {
	db := newTestDB(t)
	day := date(2026, time.April, 7)
	for _, start := range []string{"10:00", "14:00"} {
		session := models.Session{
			ScheduleID:  1,
			SessionDate: day,
			StartTime:   start,
			EndTime:     "16:00",
			Status:      "scheduled",
		}
		if err := db.Create(&session).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	exc := &models.ScheduleException{
		ScheduleID:    1,
		ExceptionDate: day,
		ExceptionType: ExceptionCancellation,
		Reason:        "building closed",
	}

	affected, err := ApplyException(db, exc, nil)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if affected != 2 {
		t.Errorf("first apply affected = %d, want 2", affected)
	}

	var cancelled int64
	db.Model(&models.Session{}).
		Where("schedule_id = ? AND status = ?", 1, "cancelled").Count(&cancelled)
	if cancelled != 2 {
		t.Errorf("cancelled sessions = %d, want 2", cancelled)
	}

	affected, err = ApplyException(db, exc, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if affected != 0 {
		t.Errorf("replay affected = %d, want 0", affected)
	}
}

func TestApplyExceptionTimeChangeIdempotent(t *testing.T) {
	db := newTestDB(t)
	day := date(2026, time.April, 8)
	session := models.Session{
		ScheduleID:  1,
		SessionDate: day,
		StartTime:   "10:00",
		EndTime:     "12:00",
		Status:      "scheduled",
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	exc := &models.ScheduleException{
		ScheduleID:    1,
		ExceptionDate: day,
		ExceptionType: ExceptionTimeChange,
		NewStartTime:  "13:00",
		NewEndTime:    "15:00",
	}

	affected, err := ApplyException(db, exc, nil)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if affected != 1 {
		t.Errorf("first apply affected = %d, want 1", affected)
	}

	affected, err = ApplyException(db, exc, nil)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if affected != 0 {
		t.Errorf("replay affected = %d, want 0", affected)
	}
}
