package controllers

import (
	"context"
	"time"

	"pattana_go/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// GetHealthStatus reports liveness of the process and its backing stores.
func (hc *HealthController) GetHealthStatus(c *fiber.Ctx) error {
	status := fiber.StatusOK
	report := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	dbStatus := "up"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
		report["status"] = "degraded"
		status = fiber.StatusServiceUnavailable
	}
	report["database"] = dbStatus

	// Redis is optional; it never fails the health check on its own
	redisStatus := "disabled"
	if rc := database.GetRedisClient(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
		} else {
			redisStatus = "up"
		}
	}
	report["redis"] = redisStatus

	return c.Status(status).JSON(report)
}
