package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/response"
)

// AuditHandler exposes the admin audit trail
type AuditHandler struct {
	audit *services.AuditRecorder
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *services.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit events, newest first, filterable by action, entity
// type and time window
func (h *AuditHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	opts := services.ListAuditEventsOptions{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.ValidationError(c, "since must be an RFC 3339 timestamp")
		}
		opts.Since = &since
	}

	pagination := response.CalculatePagination(page, limit, 0)
	opts.Limit = pagination.PerPage
	opts.Offset = (pagination.CurrentPage - 1) * pagination.PerPage

	events, total, err := h.audit.List(c.Context(), opts)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Paginated(c, events, response.CalculatePagination(page, limit, total))
}
