package controllers

import (
	"strconv"
	"time"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"

	"github.com/gofiber/fiber/v2"
)

type StudentController struct{}

// GetStudents returns students with pagination and search
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Student{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR first_name_en LIKE ? OR last_name_en LIKE ? OR nickname_en LIKE ? OR nickname_th LIKE ?",
			like, like, like, like, like, like)
	}

	var total int64
	query.Count(&total)

	var students []models.Student
	if err := query.Preload("User").
		Offset((page - 1) * limit).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch students"})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns one student with their active enrollments
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.Preload("User").First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var enrollments []models.Enrollment
	database.DB.Preload("Schedule").Preload("Schedule.Course").
		Where("student_id = ? AND status = ?", student.ID, "active").Find(&enrollments)

	return c.JSON(fiber.Map{
		"student":     student,
		"enrollments": enrollments,
	})
}

type CreateStudentRequest struct {
	UserID      *uint  `json:"user_id"`
	FirstName   string `json:"first_name"`
	FirstNameEn string `json:"first_name_en"`
	LastName    string `json:"last_name"`
	LastNameEn  string `json:"last_name_en"`
	NicknameEn  string `json:"nickname_en"`
	NicknameTh  string `json:"nickname_th"`
	DateOfBirth string `json:"date_of_birth"` // 2006-01-02
	Age         int    `json:"age"`
	ParentName  string `json:"parent_name"`
	ParentPhone string `json:"parent_phone"`
}

// CreateStudent creates a student profile
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.FirstName == "" && req.FirstNameEn == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "first_name or first_name_en is required"})
	}

	student := models.Student{
		UserID:      req.UserID,
		FirstName:   req.FirstName,
		FirstNameEn: req.FirstNameEn,
		LastName:    req.LastName,
		LastNameEn:  req.LastNameEn,
		NicknameEn:  req.NicknameEn,
		NicknameTh:  req.NicknameTh,
		Age:         req.Age,
		ParentName:  req.ParentName,
		ParentPhone: req.ParentPhone,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_of_birth must be YYYY-MM-DD"})
		}
		student.DateOfBirth = &dob
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create student"})
	}

	middleware.LogActivity(c, "CREATE", "students", student.ID, nil)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Student created successfully", "student": student})
}

// UpdateStudent updates a student profile
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID"})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.FirstNameEn != "" {
		updates["first_name_en"] = req.FirstNameEn
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.LastNameEn != "" {
		updates["last_name_en"] = req.LastNameEn
	}
	if req.NicknameEn != "" {
		updates["nickname_en"] = req.NicknameEn
	}
	if req.NicknameTh != "" {
		updates["nickname_th"] = req.NicknameTh
	}
	if req.Age > 0 {
		updates["age"] = req.Age
	}
	if req.ParentName != "" {
		updates["parent_name"] = req.ParentName
	}
	if req.ParentPhone != "" {
		updates["parent_phone"] = req.ParentPhone
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_of_birth must be YYYY-MM-DD"})
		}
		updates["date_of_birth"] = &dob
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update student"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "students", student.ID, updates)
	return c.JSON(fiber.Map{"message": "Student updated successfully", "student": student})
}
