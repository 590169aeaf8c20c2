package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/services"

	"github.com/gofiber/fiber/v2"
)

type LeaveController struct{}

type SubmitLeaveRequest struct {
	ScheduleID uint   `json:"schedule_id" validate:"required"`
	StudentID  uint   `json:"student_id" validate:"required"`
	LeaveDate  string `json:"leave_date" validate:"required"` // 2006-01-02
	Reason     string `json:"reason"`
}

// SubmitLeave records a leave for one session date under the quota policy.
func (lc *LeaveController) SubmitLeave(c *fiber.Ctx) error {
	var req SubmitLeaveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	leaveDate, err := parseDateParam(req.LeaveDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "leave_date must be YYYY-MM-DD"})
	}

	decision, err := services.SubmitLeaveRequest(database.DB, services.LeaveRequest{
		ScheduleID: req.ScheduleID,
		StudentID:  req.StudentID,
		LeaveDate:  leaveDate,
		Reason:     req.Reason,
	}, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotEnrolled),
			errors.Is(err, services.ErrNoSessionOnDate):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrAdvanceNoticeRequired):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrLeaveQuotaExceeded):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit leave"})
		}
	}

	middleware.LogActivity(c, "CREATE", "leaves", decision.AttendanceRecordID, fiber.Map{
		"schedule_id": req.ScheduleID,
		"student_id":  req.StudentID,
		"status":      decision.AttendanceStatus,
	})

	notifyScheduleTeacher(req.ScheduleID,
		"Student leave recorded",
		"มีนักเรียนแจ้งลา",
		fmt.Sprintf("A student will miss the session on %s (%s)", req.LeaveDate, decision.AttendanceStatus),
		fmt.Sprintf("นักเรียนแจ้งลาคาบเรียนวันที่ %s (%s)", req.LeaveDate, decision.AttendanceStatus),
		"info")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Leave recorded",
		"decision": decision,
	})
}

// GetEntitlement reports a student's current quota standing on a schedule.
func (lc *LeaveController) GetEntitlement(c *fiber.Ctx) error {
	scheduleID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule id"})
	}
	studentID, err := strconv.ParseUint(c.Query("student_id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id is required"})
	}

	summary, err := services.EntitlementSummaryFor(database.DB, uint(scheduleID), uint(studentID), time.Now())
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Schedule not found"})
	}

	return c.JSON(fiber.Map{"entitlement": summary})
}

type SubmitDropRequest struct {
	ScheduleID         uint   `json:"schedule_id" validate:"required"`
	StudentID          uint   `json:"student_id" validate:"required"`
	DropType           string `json:"drop_type" validate:"required"` // temporary, permanent
	DropDate           string `json:"drop_date" validate:"required"`
	ExpectedReturnDate string `json:"expected_return_date"`
	PreserveSchedule   bool   `json:"preserve_schedule"`
	Reason             string `json:"reason"`
}

// SubmitDrop records a course drop and flags the student's remaining sessions.
func (lc *LeaveController) SubmitDrop(c *fiber.Ctx) error {
	var req SubmitDropRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.DropType != "temporary" && req.DropType != "permanent" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "drop_type must be temporary or permanent"})
	}

	dropDate, err := parseDateParam(req.DropDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "drop_date must be YYYY-MM-DD"})
	}

	dropReq := services.DropRequest{
		ScheduleID:       req.ScheduleID,
		StudentID:        req.StudentID,
		DropType:         req.DropType,
		DropDate:         dropDate,
		PreserveSchedule: req.PreserveSchedule,
		Reason:           req.Reason,
	}
	if req.ExpectedReturnDate != "" {
		returnDate, err := parseDateParam(req.ExpectedReturnDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expected_return_date must be YYYY-MM-DD"})
		}
		dropReq.ExpectedReturnDate = &returnDate
	}

	drop, flagged, err := services.SubmitDrop(database.DB, dropReq)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReturnDateRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrDropLimitReached):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit drop"})
		}
	}

	middleware.LogActivity(c, "CREATE", "course_drops", drop.ID, fiber.Map{
		"drop_type":        req.DropType,
		"sessions_flagged": flagged,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":          "Drop recorded",
		"drop":             drop,
		"sessions_flagged": flagged,
	})
}
