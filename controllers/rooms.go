package controllers

import (
	"strconv"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"

	"github.com/gofiber/fiber/v2"
)

type RoomController struct{}

// GetRooms returns all rooms with pagination
func (rc *RoomController) GetRooms(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var rooms []models.Room
	var total int64

	query := database.DB.Model(&models.Room{})
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if minCapacity := c.Query("min_capacity"); minCapacity != "" {
		query = query.Where("capacity >= ?", minCapacity)
	}

	query.Count(&total)

	if err := query.Preload("Branch").
		Offset(offset).Limit(limit).Find(&rooms).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rooms"})
	}

	return c.JSON(fiber.Map{
		"rooms": rooms,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetRoom returns a specific room by ID
func (rc *RoomController) GetRoom(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room ID"})
	}

	var room models.Room
	if err := database.DB.Preload("Branch").First(&room, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Room not found"})
	}

	return c.JSON(fiber.Map{"room": room})
}

// GetAvailableRooms lists rooms with no session booked in the given window
func (rc *RoomController) GetAvailableRooms(c *fiber.Ctx) error {
	date := c.Query("date")
	startTime, errStart := normalizeHourMinute(c.Query("start_time"))
	endTime, errEnd := normalizeHourMinute(c.Query("end_time"))
	if date == "" || errStart != nil || errEnd != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date, start_time and end_time are required"})
	}
	if _, err := parseDateParam(date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	// Half-open windows: sessions that merely touch the boundary do not block
	busy := database.DB.Table("sessions").
		Select("schedules.default_room_id").
		Joins("JOIN schedules ON schedules.id = sessions.schedule_id").
		Where("schedules.default_room_id IS NOT NULL").
		Where("DATE(sessions.session_date) = ?", date).
		Where("sessions.status <> ?", "cancelled").
		Where("sessions.start_time < ? AND ? < sessions.end_time", endTime, startTime).
		Where("sessions.deleted_at IS NULL")

	var rooms []models.Room
	query := database.DB.Where("status = ?", "available").
		Where("id NOT IN (?)", busy)
	if branchID := c.Query("branch_id"); branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	if err := query.Find(&rooms).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch rooms"})
	}

	return c.JSON(fiber.Map{"rooms": rooms, "total": len(rooms)})
}

// CreateRoom creates a new room
func (rc *RoomController) CreateRoom(c *fiber.Ctx) error {
	var room models.Room
	if err := c.BodyParser(&room); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if room.BranchID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Branch ID is required"})
	}
	if room.RoomName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Room name is required"})
	}
	if room.Capacity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Capacity must be greater than 0"})
	}

	var branch models.Branch
	if err := database.DB.First(&branch, room.BranchID).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Branch not found"})
	}

	var existingRoom models.Room
	if err := database.DB.Where("branch_id = ? AND room_name = ?", room.BranchID, room.RoomName).
		First(&existingRoom).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Room name already exists in this branch"})
	}

	if room.Status == "" {
		room.Status = "available"
	}
	if err := database.DB.Create(&room).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create room"})
	}

	middleware.LogActivity(c, "CREATE", "rooms", room.ID, fiber.Map{"room_name": room.RoomName})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Room created successfully", "room": room})
}

// UpdateRoom updates room fields
func (rc *RoomController) UpdateRoom(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room ID"})
	}

	var room models.Room
	if err := database.DB.First(&room, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Room not found"})
	}

	var req struct {
		RoomName  *string     `json:"room_name"`
		Capacity  *int        `json:"capacity"`
		Status    *string     `json:"status"`
		Equipment models.JSON `json:"equipment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.RoomName != nil && *req.RoomName != "" {
		updates["room_name"] = *req.RoomName
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		updates["capacity"] = *req.Capacity
	}
	if req.Status != nil {
		valid := map[string]bool{"available": true, "occupied": true, "maintenance": true}
		if !valid[*req.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room status"})
		}
		updates["status"] = *req.Status
	}
	if !req.Equipment.IsNull() {
		updates["equipment"] = req.Equipment
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&room).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update room"})
		}
	}

	middleware.LogActivity(c, "UPDATE", "rooms", room.ID, updates)
	return c.JSON(fiber.Map{"message": "Room updated successfully", "room": room})
}

// DeleteRoom soft deletes a room unless schedules still point at it
func (rc *RoomController) DeleteRoom(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room ID"})
	}

	var room models.Room
	if err := database.DB.First(&room, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Room not found"})
	}

	var inUse int64
	database.DB.Model(&models.Schedule{}).
		Where("default_room_id = ? AND status = ?", room.ID, "active").Count(&inUse)
	if inUse > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Room is used by active schedules"})
	}

	if err := database.DB.Delete(&room).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete room"})
	}

	middleware.LogActivity(c, "DELETE", "rooms", room.ID, nil)
	return c.JSON(fiber.Map{"message": "Room deleted successfully"})
}
