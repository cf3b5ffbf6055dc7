package student

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// AssignmentHandler exposes the student's view of their assignments
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

// NewAssignmentHandler creates a new student assignment handler
func NewAssignmentHandler(assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// MyPreceptor returns the student's active preceptor, if any
func (h *AssignmentHandler) MyPreceptor(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	preceptor, err := h.assignments.PreceptorForStudent(c.Context(), profile.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	if preceptor == nil {
		return response.Success(c, fiber.Map{"preceptor": nil})
	}
	return response.Success(c, fiber.Map{"preceptor": preceptor})
}

// MyInstructors lists the instructors at the student's institution
func (h *AssignmentHandler) MyInstructors(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	instructors, err := h.assignments.InstitutionInstructors(c.Context(), profile)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, instructors)
}

// MyPatients lists the patients assigned to the student
func (h *AssignmentHandler) MyPatients(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	patients, err := h.assignments.PatientsForStudent(c.Context(), profile.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, patients)
}
