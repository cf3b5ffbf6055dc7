package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/response"
)

// DashboardHandler exposes the admin reporting endpoints
type DashboardHandler struct {
	stats *services.StatsService
	logs  *services.LogEntryService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stats *services.StatsService, logs *services.LogEntryService) *DashboardHandler {
	return &DashboardHandler{
		stats: stats,
		logs:  logs,
	}
}

// Overview returns the system-wide dashboard aggregates
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	stats, err := h.stats.Dashboard(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats)
}

// InstitutionRollups returns per-institution activity totals
func (h *DashboardHandler) InstitutionRollups(c *fiber.Ctx) error {
	rollups, err := h.stats.InstitutionRollups(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, rollups)
}

// StudentStats returns any student's logbook summary
func (h *DashboardHandler) StudentStats(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	stats, err := h.stats.ForStudent(c.Context(), studentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats)
}

// LogEntries returns every log entry, optionally filtered by status
func (h *DashboardHandler) LogEntries(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	status := c.Query("status")

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	entries, total, err := h.logs.ListAll(c.Context(), status, pagination.PerPage, offset)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Paginated(c, entries, response.CalculatePagination(page, limit, total))
}
