package controllers

import (
	"strconv"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"
	"pattana_go/services"

	"github.com/gofiber/fiber/v2"
)

type EnrollmentController struct{}

type EnrollRequest struct {
	ScheduleID uint `json:"schedule_id" validate:"required"`
	StudentID  uint `json:"student_id" validate:"required"`
}

// Enroll adds a student to a schedule. Enrollment count is what decides
// whether the class counts as private or group for the leave policy.
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var schedule models.Schedule
	if err := database.DB.First(&schedule, req.ScheduleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}
	var student models.Student
	if err := database.DB.First(&student, req.StudentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var existing models.Enrollment
	if err := database.DB.Where("schedule_id = ? AND student_id = ?", req.ScheduleID, req.StudentID).
		First(&existing).Error; err == nil {
		if existing.Status == "active" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Student is already enrolled"})
		}
		// reactivate a paused/cancelled enrollment instead of inserting a twin
		if err := database.DB.Model(&existing).Update("status", "active").Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to enroll student"})
		}
		return c.JSON(fiber.Map{"message": "Enrollment reactivated", "enrollment": existing})
	}

	if schedule.MaxStudents > 0 {
		var active int64
		database.DB.Model(&models.Enrollment{}).
			Where("schedule_id = ? AND status = ?", req.ScheduleID, "active").Count(&active)
		if active >= int64(schedule.MaxStudents) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Schedule is full"})
		}
	}

	enrollment := models.Enrollment{
		ScheduleID: req.ScheduleID,
		StudentID:  req.StudentID,
		Status:     "active",
	}
	if err := database.DB.Create(&enrollment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to enroll student"})
	}

	middleware.LogActivity(c, "CREATE", "enrollments", enrollment.ID, fiber.Map{
		"schedule_id": req.ScheduleID,
		"student_id":  req.StudentID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Student enrolled", "enrollment": enrollment})
}

// GetEnrollments lists a schedule's enrollments with the class-size verdict.
func (ec *EnrollmentController) GetEnrollments(c *fiber.Ctx) error {
	scheduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}

	var enrollments []models.Enrollment
	query := database.DB.Preload("Student").Where("schedule_id = ?", scheduleID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enrollments"})
	}

	isPrivate, active, err := services.IsPrivateClass(database.DB, uint(scheduleID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve class size"})
	}

	return c.JSON(fiber.Map{
		"enrollments":      enrollments,
		"total":            len(enrollments),
		"active_students":  active,
		"is_private_class": isPrivate,
	})
}

// UpdateEnrollmentStatus pauses or cancels one enrollment
func (ec *EnrollmentController) UpdateEnrollmentStatus(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	valid := map[string]bool{"active": true, "paused": true, "cancelled": true}
	if !valid[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid enrollment status"})
	}

	var enrollment models.Enrollment
	if err := database.DB.First(&enrollment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
	}

	if err := database.DB.Model(&enrollment).Update("status", req.Status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update enrollment"})
	}

	middleware.LogActivity(c, "UPDATE", "enrollments", enrollment.ID, fiber.Map{"status": req.Status})
	return c.JSON(fiber.Map{"message": "Enrollment updated", "enrollment": enrollment})
}
