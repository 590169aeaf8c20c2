package controllers

import (
	"strconv"
	"time"

	"pattana_go/database"
	"pattana_go/middleware"
	"pattana_go/models"
	notifsvc "pattana_go/services/notifications"
	"pattana_go/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct{}

// GetNotifications returns notifications for the current user
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var notifications []models.Notification
	var total int64

	query := database.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)

	if read := c.Query("read"); read == "true" {
		query = query.Where("read = ?", true)
	} else if read == "false" {
		query = query.Where("read = ?", false)
	}
	if notificationType := c.Query("type"); notificationType != "" {
		query = query.Where("type = ?", notificationType)
	}

	query.Count(&total)

	if err := query.Preload("User").Preload("User.Branch").
		Preload("User.Student").Preload("User.Teacher").
		Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	dtos := make([]utils.NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		dtos = append(dtos, utils.ToNotificationDTO(n))
	}

	return c.JSON(fiber.Map{
		"notifications": dtos,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

type CreateNotificationRequest struct {
	UserIDs   []uint `json:"user_ids" validate:"required,min=1"`
	Title     string `json:"title" validate:"required"`
	TitleTh   string `json:"title_th"`
	Message   string `json:"message" validate:"required"`
	MessageTh string `json:"message_th"`
	Type      string `json:"type" validate:"required"`
}

// CreateNotification fans a notification out to the target users through the
// queue-backed notification service.
func (nc *NotificationController) CreateNotification(c *fiber.Ctx) error {
	var req CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.UserIDs) == 0 || req.Title == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_ids, title and message are required"})
	}
	validTypes := map[string]bool{"info": true, "warning": true, "error": true, "success": true}
	if !validTypes[req.Type] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification type"})
	}

	svc := notifsvc.NewService()
	if err := svc.EnqueueOrCreate(req.UserIDs,
		notifsvc.Queued(req.Title, req.TitleTh, req.Message, req.MessageTh, req.Type)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create notifications"})
	}

	middleware.LogActivity(c, "CREATE", "notifications", 0, fiber.Map{"recipients": len(req.UserIDs)})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Notifications queued",
		"recipients": len(req.UserIDs),
	})
}

// MarkAsRead marks one notification as read
func (nc *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	id := c.Params("id")
	var notification models.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&notification).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	now := time.Now()
	if err := database.DB.Model(&notification).Updates(map[string]interface{}{
		"read":    true,
		"read_at": &now,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}

	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllAsRead marks every unread notification of the current user
func (nc *NotificationController) MarkAllAsRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", user.ID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"message": "All notifications marked as read",
		"updated": result.RowsAffected,
	})
}

// GetUnreadCount returns the unread badge count
func (nc *NotificationController) GetUnreadCount(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
	}

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", user.ID, false).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count notifications"})
	}

	return c.JSON(fiber.Map{"unread_count": count})
}
