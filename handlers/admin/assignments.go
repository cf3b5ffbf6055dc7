package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// AssignmentHandler exposes admin assignment management
type AssignmentHandler struct {
	assignments *services.AssignmentService
}

// NewAssignmentHandler creates a new admin assignment handler
func NewAssignmentHandler(assignments *services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// AssignPreceptorRequest links a student to a preceptor
type AssignPreceptorRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	PreceptorID string `json:"preceptor_id" validate:"required"`
}

// AssignPreceptor creates a student-preceptor assignment, subject to the
// per-preceptor capacity limit
func (h *AssignmentHandler) AssignPreceptor(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req AssignPreceptorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return response.ValidationError(c, "Invalid student id")
	}
	preceptorID, err := uuid.Parse(req.PreceptorID)
	if err != nil {
		return response.ValidationError(c, "Invalid preceptor id")
	}

	assignment, err := h.assignments.AssignStudentToPreceptor(c.Context(), actor, studentID, preceptorID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Student assigned to preceptor", assignment)
}

// AssignPatientRequest links a patient to a student
type AssignPatientRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	PatientID string `json:"patient_id" validate:"required"`
}

// AssignPatient creates a student-patient assignment
func (h *AssignmentHandler) AssignPatient(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req AssignPatientRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		return response.ValidationError(c, "Invalid student id")
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return response.ValidationError(c, "Invalid patient id")
	}

	assignment, err := h.assignments.AssignPatientToStudent(c.Context(), actor, studentID, patientID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Patient assigned to student", assignment)
}

// List returns all student-preceptor assignments
func (h *AssignmentHandler) List(c *fiber.Ctx) error {
	assignments, err := h.assignments.ListAssignments(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, assignments)
}

// PreceptorLoads returns every preceptor's active student count against the cap
func (h *AssignmentHandler) PreceptorLoads(c *fiber.Ctx) error {
	loads, err := h.assignments.PreceptorLoadReport(c.Context())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, loads)
}
