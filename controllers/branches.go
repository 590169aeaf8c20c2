package controllers

import (
	"strconv"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"

	"github.com/gofiber/fiber/v2"
)

type BranchController struct{}

// GetBranches returns all branches
func (bc *BranchController) GetBranches(c *fiber.Ctx) error {
	var branches []models.Branch
	query := database.DB.Model(&models.Branch{})
	if active := c.Query("active"); active == "true" {
		query = query.Where("active = ?", true)
	}
	if err := query.Order("code ASC").Find(&branches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch branches"})
	}

	return c.JSON(fiber.Map{"branches": branches, "total": len(branches)})
}

// GetBranch returns a specific branch with its rooms
func (bc *BranchController) GetBranch(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branch ID"})
	}

	var branch models.Branch
	if err := database.DB.Preload("Rooms").First(&branch, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branch not found"})
	}

	return c.JSON(fiber.Map{"branch": branch})
}

// CreateBranch creates a new branch
func (bc *BranchController) CreateBranch(c *fiber.Ctx) error {
	var branch models.Branch
	if err := c.BodyParser(&branch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if branch.NameEn == "" || branch.NameTh == "" || branch.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name_en, name_th and code are required"})
	}

	var existing models.Branch
	if err := database.DB.Where("code = ?", branch.Code).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Branch code already exists"})
	}

	branch.Active = true
	if err := database.DB.Create(&branch).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create branch"})
	}

	middleware.LogActivity(c, "CREATE", "branches", branch.ID, fiber.Map{"code": branch.Code})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Branch created successfully", "branch": branch})
}

// UpdateBranch updates branch fields
func (bc *BranchController) UpdateBranch(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid branch ID"})
	}

	var branch models.Branch
	if err := database.DB.First(&branch, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Branch not found"})
	}

	var req struct {
		NameEn  *string `json:"name_en"`
		NameTh  *string `json:"name_th"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
		Active  *bool   `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.NameEn != nil && *req.NameEn != "" {
		updates["name_en"] = *req.NameEn
	}
	if req.NameTh != nil && *req.NameTh != "" {
		updates["name_th"] = *req.NameTh
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&branch).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update branch"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "branches", branch.ID, updates)
	return c.JSON(fiber.Map{"message": "Branch updated successfully", "branch": branch})
}
