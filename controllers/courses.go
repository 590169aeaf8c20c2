package controllers

import (
	"strconv"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"

	"github.com/gofiber/fiber/v2"
)

type CourseController struct{}

// GetCourses returns all courses (public endpoint)
func (cc *CourseController) GetCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Course{})
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if level := c.Query("level"); level != "" {
		query = query.Where("level = ?", level)
	}

	var total int64
	query.Count(&total)

	var courses []models.Course
	if err := query.Preload("Branch").
		Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch courses"})
	}

	return c.JSON(fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetCourse returns a specific course by ID
func (cc *CourseController) GetCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var course models.Course
	if err := database.DB.Preload("Branch").First(&course, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	return c.JSON(fiber.Map{"course": course})
}

// CreateCourse creates a new course
func (cc *CourseController) CreateCourse(c *fiber.Ctx) error {
	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if course.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course name is required"})
	}
	if course.Code != "" {
		var existing models.Course
		if err := database.DB.Where("code = ?", course.Code).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Course code already exists"})
		}
	}

	if course.Status == "" {
		course.Status = "active"
	}
	if err := database.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}

	middleware.LogActivity(c, "CREATE", "courses", course.ID, fiber.Map{"name": course.Name})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Course created successfully", "course": course})
}

// UpdateCourse updates course fields
func (cc *CourseController) UpdateCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var course models.Course
	if err := database.DB.First(&course, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Level       *string `json:"level"`
		Status      *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Level != nil {
		updates["level"] = *req.Level
	}
	if req.Status != nil {
		if *req.Status != "active" && *req.Status != "inactive" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course status"})
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&course).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update course"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "courses", course.ID, updates)
	return c.JSON(fiber.Map{"message": "Course updated successfully", "course": course})
}

// DeleteCourse soft deletes a course unless schedules still use it
func (cc *CourseController) DeleteCourse(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var course models.Course
	if err := database.DB.First(&course, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var inUse int64
	database.DB.Model(&models.Schedule{}).
		Where("course_id = ? AND status IN ?", course.ID, []string{"active", "paused"}).Count(&inUse)
	if inUse > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Course is used by active schedules"})
	}

	if err := database.DB.Delete(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete course"})
	}

	middleware.LogActivity(c, "DELETE", "courses", course.ID, nil)
	return c.JSON(fiber.Map{"message": "Course deleted successfully"})
}
