package instructor

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// StudentHandler exposes the preceptor's view of their assigned students
type StudentHandler struct {
	logs  *services.LogEntryService
	stats *services.StatsService
}

// NewStudentHandler creates a new instructor student handler
func NewStudentHandler(logs *services.LogEntryService, stats *services.StatsService) *StudentHandler {
	return &StudentHandler{
		logs:  logs,
		stats: stats,
	}
}

// List returns the students actively assigned to the preceptor
func (h *StudentHandler) List(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	students, err := h.logs.AssignedStudents(c.Context(), profile)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, students)
}

// Stats returns one assigned student's logbook summary
func (h *StudentHandler) Stats(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	studentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	// Visibility follows the active assignment, same as entry access
	students, err := h.logs.AssignedStudents(c.Context(), profile)
	if err != nil {
		return response.FromError(c, err)
	}
	assigned := false
	for _, s := range students {
		if s.ID == studentID {
			assigned = true
			break
		}
	}
	if !assigned {
		return response.Forbidden(c, "This student is not assigned to you")
	}

	stats, err := h.stats.ForStudent(c.Context(), studentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats)
}
