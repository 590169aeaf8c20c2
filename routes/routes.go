package routes

import (
	"pattana_go/controllers"
	"pattana_go/middleware"
	"pattana_go/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, holidays *services.HolidayCalendar) {
	authController := &controllers.AuthController{}
	branchController := &controllers.BranchController{}
	courseController := &controllers.CourseController{}
	studentController := &controllers.StudentController{}
	teacherController := &controllers.TeacherController{}
	roomController := &controllers.RoomController{}
	enrollmentController := &controllers.EnrollmentController{}
	scheduleController := controllers.NewScheduleController(holidays)
	exceptionController := &controllers.ExceptionController{}
	leaveController := &controllers.LeaveController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	healthController := &controllers.HealthController{}

	app.Get("/health", healthController.GetHealthStatus)

	api := app.Group("/api")

	// Public routes (no authentication required)
	public := api.Group("/public")
	public.Get("/courses", courseController.GetCourses)
	public.Get("/courses/:id", courseController.GetCourse)

	// Authentication routes
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/auth/logout", authController.Logout)

	passwordReset := protected.Group("/password-reset", middleware.RequireOwnerOrAdmin())
	passwordReset.Post("/reset-by-admin", authController.ResetPasswordByAdmin)

	// User management
	users := protected.Group("/users")
	users.Post("/", middleware.RequireOwnerOrAdmin(), authController.Register)

	// Branch management
	branches := protected.Group("/branches")
	branches.Get("/", middleware.RequireTeacherOrAbove(), branchController.GetBranches)
	branches.Get("/:id", middleware.RequireTeacherOrAbove(), branchController.GetBranch)
	branches.Post("/", middleware.RequireOwnerOrAdmin(), branchController.CreateBranch)
	branches.Put("/:id", middleware.RequireOwnerOrAdmin(), branchController.UpdateBranch)

	// Course management
	courses := protected.Group("/courses")
	courses.Get("/", courseController.GetCourses)
	courses.Get("/:id", courseController.GetCourse)
	courses.Post("/", middleware.RequireOwnerOrAdmin(), courseController.CreateCourse)
	courses.Put("/:id", middleware.RequireOwnerOrAdmin(), courseController.UpdateCourse)
	courses.Delete("/:id", middleware.RequireOwnerOrAdmin(), courseController.DeleteCourse)

	// Student management
	students := protected.Group("/students")
	students.Get("/", middleware.RequireTeacherOrAbove(), studentController.GetStudents)
	students.Get("/:id", middleware.RequireTeacherOrAbove(), studentController.GetStudent)
	students.Post("/", middleware.RequireTeacherOrAbove(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequireTeacherOrAbove(), studentController.UpdateStudent)

	// Teacher management
	teachers := protected.Group("/teachers")
	teachers.Get("/", middleware.RequireTeacherOrAbove(), teacherController.GetTeachers)
	teachers.Get("/:id", middleware.RequireTeacherOrAbove(), teacherController.GetTeacher)
	teachers.Post("/", middleware.RequireOwnerOrAdmin(), teacherController.CreateTeacher)
	teachers.Put("/:id", middleware.RequireOwnerOrAdmin(), teacherController.UpdateTeacher)

	// Room management
	rooms := protected.Group("/rooms")
	rooms.Get("/", middleware.RequireTeacherOrAbove(), roomController.GetRooms)
	rooms.Get("/available", middleware.RequireTeacherOrAbove(), roomController.GetAvailableRooms)
	rooms.Get("/:id", middleware.RequireTeacherOrAbove(), roomController.GetRoom)
	rooms.Post("/", middleware.RequireOwnerOrAdmin(), roomController.CreateRoom)
	rooms.Put("/:id", middleware.RequireOwnerOrAdmin(), roomController.UpdateRoom)
	rooms.Delete("/:id", middleware.RequireOwnerOrAdmin(), roomController.DeleteRoom)

	// Schedule management: session generation, editing, calendar
	schedules := protected.Group("/schedules")
	schedules.Post("/", middleware.RequireOwnerOrAdmin(), scheduleController.CreateSchedule)
	schedules.Get("/", middleware.RequireTeacherOrAbove(), scheduleController.GetSchedules)
	schedules.Get("/teachers", middleware.RequireTeacherOrAbove(), scheduleController.GetTeachersSchedules)
	schedules.Get("/calendar", middleware.RequireTeacherOrAbove(), scheduleController.GetCalendarView)

	// Makeup sessions
	schedules.Get("/makeup-sessions", middleware.RequireTeacherOrAbove(), scheduleController.GetMakeupSessions)
	schedules.Post("/:id/makeup-sessions", middleware.RequireOwnerOrAdmin(), scheduleController.CreateMakeupSession)

	// Comments: อ่านได้ทุก role ที่ login เขียนได้ตั้งแต่ครูขึ้นไป
	schedules.Post("/comments", middleware.RequireTeacherOrAbove(), scheduleController.AddComment)
	schedules.Get("/comments", scheduleController.GetComments)

	// Session management
	schedules.Get("/sessions/:id", scheduleController.GetSession)
	schedules.Patch("/sessions/:id", middleware.RequireOwnerOrAdmin(), scheduleController.UpdateSession)
	schedules.Patch("/sessions/:id/status", middleware.RequireTeacherOrAbove(), scheduleController.UpdateSessionStatus)

	schedules.Get("/:id", middleware.RequireTeacherOrAbove(), scheduleController.GetScheduleDetail)
	schedules.Patch("/:id/status", middleware.RequireOwnerOrAdmin(), scheduleController.UpdateScheduleStatus)
	schedules.Get("/:id/sessions", scheduleController.GetScheduleSessions)
	schedules.Post("/:id/sessions", middleware.RequireOwnerOrAdmin(), scheduleController.AddSessionToSchedule)
	schedules.Get("/:id/sessions/export", middleware.RequireTeacherOrAbove(), scheduleController.ExportSessions)

	// Exceptions
	schedules.Post("/exceptions", middleware.RequireOwnerOrAdmin(), exceptionController.CreateException)
	schedules.Get("/:id/exceptions", middleware.RequireTeacherOrAbove(), exceptionController.GetExceptions)
	schedules.Post("/:id/exceptions/reapply", middleware.RequireOwnerOrAdmin(), exceptionController.ReapplyExceptions)

	// Enrollments
	enrollments := protected.Group("/enrollments")
	enrollments.Post("/", middleware.RequireOwnerOrAdmin(), enrollmentController.Enroll)
	enrollments.Patch("/:id/status", middleware.RequireOwnerOrAdmin(), enrollmentController.UpdateEnrollmentStatus)
	schedules.Get("/:id/enrollments", middleware.RequireTeacherOrAbove(), enrollmentController.GetEnrollments)

	// Leave policy
	leaves := protected.Group("/leaves")
	leaves.Post("/", middleware.RequireTeacherOrAbove(), leaveController.SubmitLeave)
	schedules.Get("/:id/entitlement", middleware.RequireTeacherOrAbove(), leaveController.GetEntitlement)

	drops := protected.Group("/drops")
	drops.Post("/", middleware.RequireOwnerOrAdmin(), leaveController.SubmitDrop)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Post("/", middleware.RequireOwnerOrAdmin(), notificationController.CreateNotification)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)

	// Log management (Admin/Owner only)
	logs := protected.Group("/logs", middleware.RequireOwnerOrAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/export", logController.ExportLogs)
	logs.Delete("/old", logController.DeleteOldLogs)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
}
