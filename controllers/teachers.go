package controllers

import (
	"strconv"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"

	"github.com/gofiber/fiber/v2"
)

type TeacherController struct{}

// GetTeachers returns teacher profiles with pagination
func (tc *TeacherController) GetTeachers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Teacher{})
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if active := c.Query("active"); active == "true" {
		query = query.Where("active = ?", true)
	}

	var total int64
	query.Count(&total)

	var teachers []models.Teacher
	if err := query.Preload("User").Preload("Branch").
		Offset((page - 1) * limit).Limit(limit).Find(&teachers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch teachers"})
	}

	return c.JSON(fiber.Map{
		"teachers": teachers,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetTeacher returns one teacher with their active schedules
func (tc *TeacherController) GetTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher ID"})
	}

	var teacher models.Teacher
	if err := database.DB.Preload("User").Preload("Branch").First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
	}

	var schedules []models.Schedule
	database.DB.Preload("Course").Preload("TimeSlots").
		Where("default_teacher_id = ? AND status = ?", teacher.UserID, "active").Find(&schedules)

	return c.JSON(fiber.Map{
		"teacher":   teacher,
		"schedules": schedules,
	})
}

// CreateTeacher creates a teacher profile for an existing user
func (tc *TeacherController) CreateTeacher(c *fiber.Ctx) error {
	var teacher models.Teacher
	if err := c.BodyParser(&teacher); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if teacher.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	var user models.User
	if err := database.DB.First(&user, teacher.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if user.Role != "teacher" && user.Role != "admin" && user.Role != "owner" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User does not have the teacher role"})
	}

	var existing models.Teacher
	if err := database.DB.Where("user_id = ?", teacher.UserID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Teacher profile already exists"})
	}

	teacher.Active = true
	if teacher.BranchID == 0 {
		teacher.BranchID = user.BranchID
	}
	if err := database.DB.Create(&teacher).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create teacher"})
	}

	middleware.LogActivity(c, "CREATE", "teachers", teacher.ID, fiber.Map{"user_id": teacher.UserID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Teacher created successfully", "teacher": teacher})
}

// UpdateTeacher updates a teacher profile
func (tc *TeacherController) UpdateTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher ID"})
	}

	var teacher models.Teacher
	if err := database.DB.First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
	}

	var req struct {
		FirstNameEn *string `json:"first_name_en"`
		FirstNameTh *string `json:"first_name_th"`
		LastNameEn  *string `json:"last_name_en"`
		LastNameTh  *string `json:"last_name_th"`
		NicknameEn  *string `json:"nickname_en"`
		HourlyRate  *int    `json:"hourly_rate"`
		Active      *bool   `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.FirstNameEn != nil {
		updates["first_name_en"] = *req.FirstNameEn
	}
	if req.FirstNameTh != nil {
		updates["first_name_th"] = *req.FirstNameTh
	}
	if req.LastNameEn != nil {
		updates["last_name_en"] = *req.LastNameEn
	}
	if req.LastNameTh != nil {
		updates["last_name_th"] = *req.LastNameTh
	}
	if req.NicknameEn != nil {
		updates["nickname_en"] = *req.NicknameEn
	}
	if req.HourlyRate != nil {
		updates["hourly_rate"] = *req.HourlyRate
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&teacher).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update teacher"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "teachers", teacher.ID, updates)
	return c.JSON(fiber.Map{"message": "Teacher updated successfully", "teacher": teacher})
}
