package services

import (
	"errors"
	"testing"
	"time"

	"pattana_go/models"

	"gorm.io/gorm"
)

func TestEntitlementFor(t *testing.T) {
	tests := []struct {
		name       string
		isPrivate  bool
		totalHours int
		age        int
		want       Entitlement
	}{
		{"private 40h", true, 40, 25, Entitlement{Leaves: 1, Makeups: 1}},
		{"private 50h", true, 50, 25, Entitlement{Leaves: 1, Makeups: 1}},
		{"private 60h", true, 60, 25, Entitlement{Leaves: 3, Makeups: 2}},
		{"private short course young student", true, 40, 9, Entitlement{Leaves: 3, Makeups: 1}},
		{"private short course age ten", true, 40, 10, Entitlement{Leaves: 1, Makeups: 1}},
		{"private long course young student", true, 60, 9, Entitlement{Leaves: 3, Makeups: 2}},
		{"private unknown age", true, 40, 0, Entitlement{Leaves: 1, Makeups: 1}},
		{"group 40h", false, 40, 25, Entitlement{Leaves: 0, Makeups: 1}},
		{"group 50h", false, 50, 25, Entitlement{Leaves: 0, Makeups: 1}},
		{"group 60h", false, 60, 25, Entitlement{Leaves: 0, Makeups: 2}},
		{"group young student gets no override", false, 40, 9, Entitlement{Leaves: 0, Makeups: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EntitlementFor(tt.isPrivate, tt.totalHours, tt.age)
			if got != tt.want {
				t.Errorf("EntitlementFor(%v, %d, %d) = %+v, want %+v", tt.isPrivate, tt.totalHours, tt.age, got, tt.want)
			}
		})
	}
}

// The advance-notice window is anchored on the session's start datetime.
func TestSessionStart(t *testing.T) {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	got := sessionStart(models.Session{SessionDate: day, StartTime: "09:30"})
	want := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("sessionStart = %v, want %v", got, want)
	}

	// Malformed start time falls back to midnight rather than failing.
	got = sessionStart(models.Session{SessionDate: day, StartTime: "bogus"})
	if !got.Equal(day) {
		t.Errorf("sessionStart with bad time = %v, want %v", got, day)
	}
}

func seedPrivateSchedule(t *testing.T, db *gorm.DB) (models.Schedule, models.Student) {
	t.Helper()

	schedule := models.Schedule{
		CourseID:        1,
		ScheduleName:    "Private English A1",
		TotalHours:      40,
		HoursPerSession: 2,
		StartDate:       date(2026, time.February, 2),
		Status:          "active",
	}
	if err := db.Create(&schedule).Error; err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	student := models.Student{FirstName: "Mali", Age: 25}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	enrollment := models.Enrollment{ScheduleID: schedule.ID, StudentID: student.ID, Status: "active"}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	return schedule, student
}

func seedSession(t *testing.T, db *gorm.DB, scheduleID uint, day time.Time, number int) models.Session {
	t.Helper()

	session := models.Session{
		ScheduleID:    scheduleID,
		SessionDate:   day,
		SessionNumber: number,
		WeekNumber:    number,
		StartTime:     "10:00",
		EndTime:       "12:00",
		Status:        "scheduled",
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

// A private 40-hour course carries exactly one leave: the first request is
// approved, the second hits the quota.
func TestSubmitLeaveRequestPrivateQuota(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)
	seedSession(t, db, schedule.ID, date(2026, time.February, 10), 1)
	seedSession(t, db, schedule.ID, date(2026, time.February, 17), 2)

	now := date(2026, time.February, 1)

	first, err := SubmitLeaveRequest(db, LeaveRequest{
		ScheduleID: schedule.ID,
		StudentID:  student.ID,
		LeaveDate:  date(2026, time.February, 10),
		Reason:     "family trip",
	}, now)
	if err != nil {
		t.Fatalf("first leave: %v", err)
	}
	if !first.IsPrivateClass {
		t.Error("single active enrollment should resolve as private")
	}
	if first.AttendanceStatus != "approved_leave" {
		t.Errorf("first leave status = %q, want approved_leave", first.AttendanceStatus)
	}
	if first.UsedLeaves != 0 {
		t.Errorf("first leave used = %d, want 0", first.UsedLeaves)
	}
	if first.MakeupEligibilityID != 0 {
		t.Error("private leave should not create a makeup eligibility")
	}

	_, err = SubmitLeaveRequest(db, LeaveRequest{
		ScheduleID: schedule.ID,
		StudentID:  student.ID,
		LeaveDate:  date(2026, time.February, 17),
		Reason:     "another trip",
	}, now)
	if !errors.Is(err, ErrLeaveQuotaExceeded) {
		t.Fatalf("second leave err = %v, want ErrLeaveQuotaExceeded", err)
	}
}

func TestSubmitLeaveRequestAdvanceNotice(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)
	seedSession(t, db, schedule.ID, date(2026, time.February, 10), 1)

	// 14 hours before the 10:00 start is inside the 24-hour window.
	now := time.Date(2026, time.February, 9, 20, 0, 0, 0, time.UTC)

	_, err := SubmitLeaveRequest(db, LeaveRequest{
		ScheduleID: schedule.ID,
		StudentID:  student.ID,
		LeaveDate:  date(2026, time.February, 10),
		Reason:     "sick",
	}, now)
	if !errors.Is(err, ErrAdvanceNoticeRequired) {
		t.Fatalf("err = %v, want ErrAdvanceNoticeRequired", err)
	}
}

// Group-class leaves are never denied on quota; every absence is recorded as
// excused and leaves a pending makeup eligibility behind.
func TestSubmitLeaveRequestGroupNeverDenied(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)
	classmate := models.Student{FirstName: "Nok", Age: 25}
	if err := db.Create(&classmate).Error; err != nil {
		t.Fatalf("seed classmate: %v", err)
	}
	if err := db.Create(&models.Enrollment{
		ScheduleID: schedule.ID, StudentID: classmate.ID, Status: "active",
	}).Error; err != nil {
		t.Fatalf("seed classmate enrollment: %v", err)
	}
	seedSession(t, db, schedule.ID, date(2026, time.February, 10), 1)
	seedSession(t, db, schedule.ID, date(2026, time.February, 17), 2)

	now := date(2026, time.February, 1)
	for i, day := range []time.Time{date(2026, time.February, 10), date(2026, time.February, 17)} {
		decision, err := SubmitLeaveRequest(db, LeaveRequest{
			ScheduleID: schedule.ID,
			StudentID:  student.ID,
			LeaveDate:  day,
			Reason:     "busy",
		}, now)
		if err != nil {
			t.Fatalf("leave %d: %v", i+1, err)
		}
		if decision.IsPrivateClass {
			t.Fatal("two active enrollments should resolve as group")
		}
		if decision.AttendanceStatus != "excused_absence" {
			t.Errorf("leave %d status = %q, want excused_absence", i+1, decision.AttendanceStatus)
		}
		if decision.MakeupEligibilityID == 0 {
			t.Errorf("leave %d should create a makeup eligibility", i+1)
		}
	}

	var pending int64
	db.Model(&models.MakeupEligibility{}).
		Where("student_id = ? AND status = ?", student.ID, "pending").Count(&pending)
	if pending != 2 {
		t.Errorf("pending eligibilities = %d, want 2", pending)
	}
}

func TestSubmitDropThirdAttemptRejected(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)

	for i := 0; i < maxCourseDrops; i++ {
		ret := date(2026, time.March, 1+7*i)
		_, _, err := SubmitDrop(db, DropRequest{
			ScheduleID:         schedule.ID,
			StudentID:          student.ID,
			DropType:           "temporary",
			DropDate:           date(2026, time.February, 1+7*i),
			ExpectedReturnDate: &ret,
			PreserveSchedule:   true,
			Reason:             "travel",
		})
		if err != nil {
			t.Fatalf("drop %d: %v", i+1, err)
		}
	}

	ret := date(2026, time.April, 1)
	_, _, err := SubmitDrop(db, DropRequest{
		ScheduleID:         schedule.ID,
		StudentID:          student.ID,
		DropType:           "temporary",
		DropDate:           date(2026, time.March, 15),
		ExpectedReturnDate: &ret,
		Reason:             "travel again",
	})
	if !errors.Is(err, ErrDropLimitReached) {
		t.Fatalf("third drop err = %v, want ErrDropLimitReached", err)
	}
}

// A temporary drop only flags sessions inside the absence window and pauses
// the enrollment; sessions on or after the expected return stay scheduled.
func TestSubmitDropTemporaryWindow(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)
	seedSession(t, db, schedule.ID, date(2026, time.January, 10), 1)
	seedSession(t, db, schedule.ID, date(2026, time.January, 17), 2)
	afterReturn := seedSession(t, db, schedule.ID, date(2026, time.January, 24), 3)

	ret := date(2026, time.January, 20)
	_, flagged, err := SubmitDrop(db, DropRequest{
		ScheduleID:         schedule.ID,
		StudentID:          student.ID,
		DropType:           "temporary",
		DropDate:           date(2026, time.January, 9),
		ExpectedReturnDate: &ret,
		Reason:             "hospital stay",
	})
	if err != nil {
		t.Fatalf("SubmitDrop: %v", err)
	}
	if flagged != 2 {
		t.Errorf("flagged = %d, want 2", flagged)
	}

	var untouched int64
	db.Model(&models.AttendanceRecord{}).
		Where("session_id = ?", afterReturn.ID).Count(&untouched)
	if untouched != 0 {
		t.Errorf("session after return date got %d records, want 0", untouched)
	}

	var enrollment models.Enrollment
	if err := db.Where("schedule_id = ? AND student_id = ?", schedule.ID, student.ID).
		First(&enrollment).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if enrollment.Status != "paused" {
		t.Errorf("enrollment status = %q, want paused", enrollment.Status)
	}
}

func TestSubmitDropPermanentCancelsEnrollment(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)

	_, _, err := SubmitDrop(db, DropRequest{
		ScheduleID: schedule.ID,
		StudentID:  student.ID,
		DropType:   "permanent",
		DropDate:   date(2026, time.January, 9),
		Reason:     "moving abroad",
	})
	if err != nil {
		t.Fatalf("SubmitDrop: %v", err)
	}

	var enrollment models.Enrollment
	if err := db.Where("schedule_id = ? AND student_id = ?", schedule.ID, student.ID).
		First(&enrollment).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if enrollment.Status != "cancelled" {
		t.Errorf("enrollment status = %q, want cancelled", enrollment.Status)
	}
}

func TestSubmitDropPreserveScheduleKeepsEnrollment(t *testing.T) {
	db := newTestDB(t)
	schedule, student := seedPrivateSchedule(t, db)

	ret := date(2026, time.February, 1)
	_, _, err := SubmitDrop(db, DropRequest{
		ScheduleID:         schedule.ID,
		StudentID:          student.ID,
		DropType:           "temporary",
		DropDate:           date(2026, time.January, 9),
		ExpectedReturnDate: &ret,
		PreserveSchedule:   true,
		Reason:             "short break",
	})
	if err != nil {
		t.Fatalf("SubmitDrop: %v", err)
	}

	var enrollment models.Enrollment
	if err := db.Where("schedule_id = ? AND student_id = ?", schedule.ID, student.ID).
		First(&enrollment).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if enrollment.Status != "active" {
		t.Errorf("enrollment status = %q, want active", enrollment.Status)
	}
}
