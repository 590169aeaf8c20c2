package controllers

import (
	"errors"
	"fmt"
	"time"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"
	"pattana_go/services"

	"github.com/gofiber/fiber/v2"
)

type ExceptionController struct{}

type CreateExceptionRequest struct {
	ScheduleID    uint   `json:"schedule_id" validate:"required"`
	ExceptionDate string `json:"exception_date" validate:"required"` // 2006-01-02
	ExceptionType string `json:"exception_type" validate:"required"`
	NewDate       string `json:"new_date"`
	NewStartTime  string `json:"new_start_time"`
	NewEndTime    string `json:"new_end_time"`
	Reason        string `json:"reason"`
	SessionID     *uint  `json:"session_id"` // narrow the effect to one session
}

// CreateException records a dated exception and applies it to the sessions it
// targets in one request.
func (ec *ExceptionController) CreateException(c *fiber.Ctx) error {
	var req CreateExceptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var schedule models.Schedule
	if err := database.DB.First(&schedule, req.ScheduleID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	exceptionDate, err := parseDateParam(req.ExceptionDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "exception_date must be YYYY-MM-DD"})
	}

	exc := models.ScheduleException{
		ScheduleID:    req.ScheduleID,
		ExceptionDate: exceptionDate,
		ExceptionType: req.ExceptionType,
		Reason:        req.Reason,
		Status:        "applied",
	}

	if req.NewDate != "" {
		newDate, err := parseDateParam(req.NewDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "new_date must be YYYY-MM-DD"})
		}
		exc.NewDate = &newDate
	}
	if req.NewStartTime != "" {
		start, err := normalizeHourMinute(req.NewStartTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		exc.NewStartTime = start
	}
	if req.NewEndTime != "" {
		end, err := normalizeHourMinute(req.NewEndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		exc.NewEndTime = end
	}

	if err := services.CreateException(database.DB, &exc); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateException):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrScheduleLevelException),
			errors.Is(err, services.ErrNewDateRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	affected, err := services.ApplyException(database.DB, &exc, req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply exception"})
	}

	middleware.LogActivity(c, "CREATE", "schedule_exceptions", exc.ID, fiber.Map{
		"exception_type":    exc.ExceptionType,
		"sessions_affected": affected,
	})

	notifyScheduleTeacher(req.ScheduleID,
		"Schedule exception applied",
		"มีการเปลี่ยนแปลงตารางเรียน",
		fmt.Sprintf("%s exception on %s affected %d session(s)", exc.ExceptionType, req.ExceptionDate, affected),
		fmt.Sprintf("การเปลี่ยนแปลงประเภท %s วันที่ %s มีผลกับ %d คาบเรียน", exc.ExceptionType, req.ExceptionDate, affected),
		"warning")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":           "Exception applied",
		"exception":         exc,
		"sessions_affected": affected,
	})
}

// GetExceptions lists exceptions for a schedule, optionally within a range.
func (ec *ExceptionController) GetExceptions(c *fiber.Ctx) error {
	scheduleID := c.Params("id")

	query := database.DB.Where("schedule_id = ?", scheduleID)
	if from := c.Query("date_from"); from != "" {
		if d, err := parseDateParam(from); err == nil {
			query = query.Where("exception_date >= ?", d.Format("2006-01-02"))
		}
	}
	if to := c.Query("date_to"); to != "" {
		if d, err := parseDateParam(to); err == nil {
			query = query.Where("exception_date <= ?", d.Format("2006-01-02"))
		}
	}

	var exceptions []models.ScheduleException
	if err := query.Order("exception_date ASC").Find(&exceptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch exceptions"})
	}

	return c.JSON(fiber.Map{"exceptions": exceptions, "total": len(exceptions)})
}

// ReapplyExceptions replays every recorded exception for a schedule against
// its current sessions. Safe to run after regeneration; already-applied
// exceptions touch zero rows.
func (ec *ExceptionController) ReapplyExceptions(c *fiber.Ctx) error {
	scheduleID := c.Params("id")

	var exceptions []models.ScheduleException
	if err := database.DB.Where("schedule_id = ?", scheduleID).
		Order("exception_date ASC").Find(&exceptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch exceptions"})
	}

	var totalAffected int64
	start := time.Now()
	for i := range exceptions {
		affected, err := services.ApplyException(database.DB, &exceptions[i], nil)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":        "Failed to reapply exceptions",
				"exception_id": exceptions[i].ID,
			})
		}
		totalAffected += affected
	}

	return c.JSON(fiber.Map{
		"message":           "Exceptions reapplied",
		"exceptions":        len(exceptions),
		"sessions_affected": totalAffected,
		"duration":          time.Since(start).String(),
	})
}
