package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The column type tags on the models are MySQL DDL (enum, date), so the test
// schema declares the same columns by hand with SQLite affinities instead of
// auto-migrating.
var testSchema = []string{
	`CREATE TABLE schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		course_id INTEGER, default_teacher_id INTEGER, default_room_id INTEGER,
		schedule_name TEXT, total_hours INTEGER, hours_per_session INTEGER,
		max_students INTEGER, start_date DATETIME, status TEXT,
		auto_reschedule_holiday BOOLEAN, notes TEXT, admin_assigned TEXT
	)`,
	`CREATE TABLE sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		schedule_id INTEGER, time_slot_id INTEGER, session_date DATETIME,
		session_number INTEGER, week_number INTEGER,
		start_time TEXT, end_time TEXT, status TEXT,
		is_makeup_session BOOLEAN, makeup_for_session_id INTEGER,
		cancellation_reason TEXT, notes TEXT
	)`,
	`CREATE TABLE enrollments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		schedule_id INTEGER, student_id INTEGER, status TEXT
	)`,
	`CREATE TABLE students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		user_id INTEGER, first_name TEXT, first_name_en TEXT,
		last_name TEXT, last_name_en TEXT, nickname_en TEXT, nickname_th TEXT,
		date_of_birth DATETIME, age INTEGER, parent_name TEXT, parent_phone TEXT
	)`,
	`CREATE TABLE attendance_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		session_id INTEGER, student_id INTEGER, status TEXT, note TEXT
	)`,
	`CREATE TABLE course_drops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		schedule_id INTEGER, student_id INTEGER, drop_type TEXT,
		drop_date DATETIME, expected_return_date DATETIME,
		preserve_schedule BOOLEAN, reason TEXT
	)`,
	`CREATE TABLE makeup_eligibilities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		schedule_id INTEGER, student_id INTEGER, session_id INTEGER,
		status TEXT, reason TEXT
	)`,
	`CREATE TABLE schedule_exceptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		schedule_id INTEGER, exception_date DATETIME, exception_type TEXT,
		new_date DATETIME, new_start_time TEXT, new_end_time TEXT,
		reason TEXT, status TEXT
	)`,
}

// newTestDB opens a fresh in-memory database per test. A single connection is
// forced so every query sees the same :memory: instance.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create test schema: %v", err)
		}
	}
	return db
}
