package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/database"
	"github.com/cliniclog/logbook-api/utils/response"
)

// HealthHandler reports service liveness and database reachability
type HealthHandler struct {
	storage database.Storage
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage database.Storage) *HealthHandler {
	return &HealthHandler{storage: storage}
}

// Health returns the service status
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.storage.HealthCheck(); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	status["database"] = "ok"

	return response.Success(c, status)
}
