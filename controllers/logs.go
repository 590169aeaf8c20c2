package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"pattana_go/database"
	"pattana_go/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type LogController struct{}

type LogResponse struct {
	ID         uint                   `json:"id"`
	UserID     uint                   `json:"user_id"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID uint                   `json:"resource_id"`
	Details    map[string]interface{} `json:"details"`
	IPAddress  string                 `json:"ip_address"`
	UserAgent  string                 `json:"user_agent"`
	CreatedAt  time.Time              `json:"created_at"`
}

func toLogResponse(log models.ActivityLog) LogResponse {
	resp := LogResponse{
		ID:         log.ID,
		UserID:     log.UserID,
		Action:     log.Action,
		Resource:   log.Resource,
		ResourceID: log.ResourceID,
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		CreatedAt:  log.CreatedAt,
	}
	if !log.Details.IsNull() {
		_ = json.Unmarshal(log.Details, &resp.Details)
	}
	return resp
}

// GetLogs retrieves paginated activity logs with filters
func (lc *LogController) GetLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := database.DB.Model(&models.ActivityLog{})
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if from := c.Query("date_from"); from != "" {
		if d, err := parseDateParam(from); err == nil {
			query = query.Where("created_at >= ?", d)
		}
	}
	if to := c.Query("date_to"); to != "" {
		if d, err := parseDateParam(to); err == nil {
			query = query.Where("created_at < ?", d.AddDate(0, 0, 1))
		}
	}

	var total int64
	query.Count(&total)

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch logs"})
	}

	responses := make([]LogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, toLogResponse(log))
	}

	return c.JSON(fiber.Map{
		"logs":  responses,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// FlushCachedLogs drains the Redis log buffer into MySQL
func (lc *LogController) FlushCachedLogs(c *fiber.Ctx) error {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Redis is not available"})
	}
	ctx := context.Background()

	keys, err := redisClient.ZRange(ctx, "logs:queue", 0, -1).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read log queue"})
	}

	flushed := 0
	for _, key := range keys {
		payload, err := redisClient.Get(ctx, key).Result()
		if err != nil {
			// entry expired before the flush reached it
			redisClient.ZRem(ctx, "logs:queue", key)
			continue
		}

		var log models.ActivityLog
		if err := json.Unmarshal([]byte(payload), &log); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Skipping malformed cached log")
			redisClient.ZRem(ctx, "logs:queue", key)
			continue
		}
		log.ID = 0

		if err := database.DB.Create(&log).Error; err != nil {
			logrus.WithError(err).Error("Failed to persist cached log")
			continue
		}
		redisClient.Del(ctx, key)
		redisClient.ZRem(ctx, "logs:queue", key)
		flushed++
	}

	return c.JSON(fiber.Map{
		"message": "Cached logs flushed",
		"flushed": flushed,
		"queued":  len(keys),
	})
}

// DeleteOldLogs removes logs older than the retention window (days)
func (lc *LogController) DeleteOldLogs(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "90"))
	if days < 30 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Retention must be at least 30 days"})
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	result := database.DB.Unscoped().
		Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete logs"})
	}

	return c.JSON(fiber.Map{
		"message": "Old logs deleted",
		"deleted": result.RowsAffected,
		"cutoff":  cutoff.Format("2006-01-02"),
	})
}

// ExportLogs writes filtered activity logs as an xlsx download
func (lc *LogController) ExportLogs(c *fiber.Ctx) error {
	query := database.DB.Model(&models.ActivityLog{})
	if from := c.Query("date_from"); from != "" {
		if d, err := parseDateParam(from); err == nil {
			query = query.Where("created_at >= ?", d)
		}
	}
	if to := c.Query("date_to"); to != "" {
		if d, err := parseDateParam(to); err == nil {
			query = query.Where("created_at < ?", d.AddDate(0, 0, 1))
		}
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at ASC").Limit(10000).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch logs"})
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Activity Logs"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "User ID", "Action", "Resource", "Resource ID", "IP Address", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, log := range logs {
		row := i + 2
		values := []interface{}{
			log.ID,
			log.UserID,
			log.Action,
			log.Resource,
			log.ResourceID,
			log.IPAddress,
			log.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("activity_logs_%s.xlsx", time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

	if _, err := f.WriteTo(c.Response().BodyWriter()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write export"})
	}
	return nil
}
