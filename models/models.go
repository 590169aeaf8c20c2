package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Branch model
type Branch struct {
	BaseModel
	NameEn  string `json:"name_en" gorm:"size:255;not null"`
	NameTh  string `json:"name_th" gorm:"size:255;not null"`
	Code    string `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Address string `json:"address" gorm:"size:500"`
	Phone   string `json:"phone" gorm:"size:20"`
	Active  bool   `json:"active" gorm:"default:true"`

	// Relationships
	Rooms   []Room   `json:"rooms,omitempty" gorm:"foreignKey:BranchID"`
	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:BranchID"`
}

// User model
type User struct {
	BaseModel
	Username string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex"`
	Phone    string `json:"phone" gorm:"size:20"`
	Role     string `json:"role" gorm:"size:50;not null;default:'student';type:enum('owner','admin','teacher','student')"` // owner, admin, teacher, student
	BranchID uint   `json:"branch_id" gorm:"not null"`
	Status   string `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"` // active, inactive, suspended

	// Relationships
	Branch  Branch   `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:UserID"`
	Teacher *Teacher `json:"teacher,omitempty" gorm:"foreignKey:UserID"`
}

// Student model
type Student struct {
	BaseModel
	UserID      *uint      `json:"user_id" gorm:"uniqueIndex"`
	FirstName   string     `json:"first_name" gorm:"size:100"`
	FirstNameEn string     `json:"first_name_en" gorm:"size:100"`
	LastName    string     `json:"last_name" gorm:"size:100"`
	LastNameEn  string     `json:"last_name_en" gorm:"size:100"`
	NicknameEn  string     `json:"nickname_en" gorm:"size:100"`
	NicknameTh  string     `json:"nickname_th" gorm:"size:100"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Age         int        `json:"age"`
	ParentName  string     `json:"parent_name" gorm:"size:200"`
	ParentPhone string     `json:"parent_phone" gorm:"size:20"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Teacher model
type Teacher struct {
	BaseModel
	UserID      uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	FirstNameEn string `json:"first_name_en" gorm:"size:100"`
	FirstNameTh string `json:"first_name_th" gorm:"size:100"`
	LastNameEn  string `json:"last_name_en" gorm:"size:100"`
	LastNameTh  string `json:"last_name_th" gorm:"size:100"`
	NicknameEn  string `json:"nickname_en" gorm:"size:100"`
	HourlyRate  int    `json:"hourly_rate"`
	Active      bool   `json:"active" gorm:"default:true"`
	BranchID    uint   `json:"branch_id"`

	// Relationships
	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Branch Branch `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
}

// Room model
type Room struct {
	BaseModel
	BranchID  uint   `json:"branch_id" gorm:"not null"`
	RoomName  string `json:"room_name" gorm:"size:100;not null"`
	Capacity  int    `json:"capacity" gorm:"not null"`
	Equipment JSON   `json:"equipment" gorm:"type:json"`
	Status    string `json:"status" gorm:"size:50;not null;default:'available';type:enum('available','occupied','maintenance')"` // available, occupied, maintenance

	// Relationships
	Branch Branch `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
}

// Course model
type Course struct {
	BaseModel
	Name        string `json:"name" gorm:"size:255;not null"`
	Code        string `json:"code" gorm:"size:100;uniqueIndex"`
	BranchID    uint   `json:"branch_id"`
	Description string `json:"description" gorm:"type:text"`
	Level       string `json:"level" gorm:"size:100"`
	Status      string `json:"status" gorm:"size:50;default:'active';type:enum('active','inactive')"` // active, inactive

	// Relationships
	Branch Branch `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
}

// Schedule model: หนึ่ง schedule คือคอร์สที่เรียนซ้ำตาม time slots ของมัน
// Teacher and room live here only; sessions never carry their own copies.
type Schedule struct {
	BaseModel
	CourseID              uint      `json:"course_id" gorm:"not null"`
	DefaultTeacherID      *uint     `json:"default_teacher_id"`
	DefaultRoomID         *uint     `json:"default_room_id"`
	ScheduleName          string    `json:"schedule_name" gorm:"size:100;not null"`
	TotalHours            int       `json:"total_hours" gorm:"not null"`
	HoursPerSession       int       `json:"hours_per_session" gorm:"not null"`
	MaxStudents           int       `json:"max_students"`
	StartDate             time.Time `json:"start_date" gorm:"type:date;not null"`
	Status                string    `json:"status" gorm:"size:50;default:'active';type:enum('active','paused','completed','cancelled')"` // active, paused, completed, cancelled
	AutoRescheduleHoliday bool      `json:"auto_reschedule_holidays" gorm:"default:true"`
	Notes                 string    `json:"notes" gorm:"type:text"`
	AdminAssigned         string    `json:"admin_assigned" gorm:"size:200"`

	// Relationships
	Course         Course     `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	DefaultTeacher *User      `json:"default_teacher,omitempty" gorm:"foreignKey:DefaultTeacherID"`
	DefaultRoom    *Room      `json:"default_room,omitempty" gorm:"foreignKey:DefaultRoomID"`
	TimeSlots      []TimeSlot `json:"time_slots,omitempty" gorm:"foreignKey:ScheduleID"`
}

// TimeSlot model: วัน/เวลาประจำของ schedule
// DayOfWeek is a time.Weekday stored as an int column, never a string name.
type TimeSlot struct {
	BaseModel
	ScheduleID uint         `json:"schedule_id" gorm:"not null;index"`
	DayOfWeek  time.Weekday `json:"day_of_week" gorm:"not null"`
	StartTime  string       `json:"start_time" gorm:"size:5;not null"` // "15:04"
	EndTime    string       `json:"end_time" gorm:"size:5;not null"`
	SlotOrder  int          `json:"slot_order" gorm:"default:1"`
}

// Session model: หนึ่งคาบเรียนจริงในปฏิทิน
type Session struct {
	BaseModel
	ScheduleID    uint      `json:"schedule_id" gorm:"not null;uniqueIndex:idx_session_occurrence"`
	TimeSlotID    *uint     `json:"time_slot_id"`
	SessionDate   time.Time `json:"session_date" gorm:"type:date;not null;uniqueIndex:idx_session_occurrence"`
	SessionNumber int       `json:"session_number" gorm:"not null"`
	WeekNumber    int       `json:"week_number" gorm:"not null"`
	StartTime     string    `json:"start_time" gorm:"size:5;not null;uniqueIndex:idx_session_occurrence"` // "15:04"
	EndTime       string    `json:"end_time" gorm:"size:5;not null;uniqueIndex:idx_session_occurrence"`
	Status        string    `json:"status" gorm:"size:50;default:'scheduled';type:enum('scheduled','completed','cancelled')"` // scheduled, completed, cancelled
	IsMakeupSession bool    `json:"is_makeup_session" gorm:"default:false"` // เป็นคาบชดเชยไหม
	// Unique so a cancelled session can have at most one makeup pointing at it.
	MakeupForSessionID *uint  `json:"makeup_for_session_id" gorm:"default:null;uniqueIndex"`
	CancellationReason string `json:"cancellation_reason" gorm:"type:text"`
	Notes              string `json:"notes" gorm:"type:text"`

	// Relationships
	Schedule Schedule  `json:"schedule,omitempty" gorm:"foreignKey:ScheduleID"`
	TimeSlot *TimeSlot `json:"time_slot,omitempty" gorm:"foreignKey:TimeSlotID"`
}

// ScheduleException model: คำสั่งแก้ไขของแอดมิน มีผลกับ session ในวันนั้น
// At most one per (schedule_id, exception_date).
type ScheduleException struct {
	BaseModel
	ScheduleID    uint       `json:"schedule_id" gorm:"not null;uniqueIndex:idx_exception_date"`
	ExceptionDate time.Time  `json:"exception_date" gorm:"type:date;not null;uniqueIndex:idx_exception_date"`
	ExceptionType string     `json:"exception_type" gorm:"size:50;not null;type:enum('cancellation','reschedule','teacher_change','room_change','time_change')"`
	NewDate       *time.Time `json:"new_date" gorm:"type:date"`
	NewStartTime  string     `json:"new_start_time" gorm:"size:5"`
	NewEndTime    string     `json:"new_end_time" gorm:"size:5"`
	Reason        string     `json:"reason" gorm:"type:text"`
	Status        string     `json:"status" gorm:"size:50;default:'applied';type:enum('pending','applied')"` // pending, applied

	// Relationships
	Schedule Schedule `json:"schedule,omitempty" gorm:"foreignKey:ScheduleID"`
}

// Enrollment model
type Enrollment struct {
	BaseModel
	ScheduleID uint   `json:"schedule_id" gorm:"not null;uniqueIndex:idx_enrollment"`
	StudentID  uint   `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment"`
	Status     string `json:"status" gorm:"size:50;default:'active';type:enum('active','paused','cancelled')"` // active, paused, cancelled

	// Relationships
	Schedule Schedule `json:"schedule,omitempty" gorm:"foreignKey:ScheduleID"`
	Student  Student  `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// AttendanceRecord model
type AttendanceRecord struct {
	BaseModel
	SessionID uint   `json:"session_id" gorm:"not null;index"`
	StudentID uint   `json:"student_id" gorm:"not null;index"`
	Status    string `json:"status" gorm:"size:50;not null;type:enum('present','absent','excused_absence','approved_leave','course_dropped')"`
	Note      string `json:"note" gorm:"type:text"`

	// Relationships
	Session Session `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Student Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// CourseDrop model: การพักเรียน/ออกจากคอร์ส สูงสุด 2 ครั้งต่อ (schedule, student)
type CourseDrop struct {
	BaseModel
	ScheduleID         uint       `json:"schedule_id" gorm:"not null;index"`
	StudentID          uint       `json:"student_id" gorm:"not null;index"`
	DropType           string     `json:"drop_type" gorm:"size:50;not null;type:enum('temporary','permanent')"` // temporary, permanent
	DropDate           time.Time  `json:"drop_date" gorm:"type:date;not null"`
	ExpectedReturnDate *time.Time `json:"expected_return_date" gorm:"type:date"`
	PreserveSchedule   bool       `json:"preserve_schedule" gorm:"default:false"`
	Reason             string     `json:"reason" gorm:"type:text"`
}

// MakeupEligibility model: สิทธิ์เรียนชดเชยที่รอจัดคาบ
// Group-class absences always produce one of these; it is consumed when a
// makeup session is actually arranged for the student.
type MakeupEligibility struct {
	BaseModel
	ScheduleID uint   `json:"schedule_id" gorm:"not null;index"`
	StudentID  uint   `json:"student_id" gorm:"not null;index"`
	SessionID  uint   `json:"session_id" gorm:"not null"`
	Status     string `json:"status" gorm:"size:50;default:'pending';type:enum('pending','scheduled','expired')"` // pending, scheduled, expired
	Reason     string `json:"reason" gorm:"type:text"`
}

// SessionComment model
type SessionComment struct {
	BaseModel
	ScheduleID *uint  `json:"schedule_id"`
	SessionID  *uint  `json:"session_id" gorm:"index"`
	UserID     uint   `json:"user_id" gorm:"not null"`
	Comment    string `json:"comment" gorm:"type:text;not null"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID    uint       `json:"user_id" gorm:"not null"`
	Title     string     `json:"title" gorm:"size:255;not null"`
	TitleTh   string     `json:"title_th" gorm:"size:255"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	MessageTh string     `json:"message_th" gorm:"type:text"`
	Type      string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read      bool       `json:"read" gorm:"default:false"`
	ReadAt    *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
