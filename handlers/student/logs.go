package student

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// LogHandler exposes the student's logbook endpoints
type LogHandler struct {
	logs        *services.LogEntryService
	assignments *services.AssignmentService
	stats       *services.StatsService
}

// NewLogHandler creates a new student log handler
func NewLogHandler(logs *services.LogEntryService, assignments *services.AssignmentService, stats *services.StatsService) *LogHandler {
	return &LogHandler{
		logs:        logs,
		assignments: assignments,
		stats:       stats,
	}
}

// CreateLogRequest represents a new log entry submission
type CreateLogRequest struct {
	Date               string  `json:"date" validate:"required"`
	Location           string  `json:"location" validate:"required"`
	Specialty          string  `json:"specialty"`
	Hours              float64 `json:"hours"`
	Activities         string  `json:"activities"`
	LearningObjectives string  `json:"learning_objectives"`
	Reflection         string  `json:"reflection"`
	SupervisorName     string  `json:"supervisor_name"`
	PatientsSeen       *int    `json:"patients_seen"`

	PatientReferenceID string `json:"patient_reference_id"`
	PatientAgeGroup    string `json:"patient_age_group"`
	PatientGender      string `json:"patient_gender"`
}

// Create records a new pending log entry
func (h *LogHandler) Create(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateLogRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return response.ValidationError(c, "Date must be in YYYY-MM-DD format")
	}

	entry, err := h.logs.Create(c.Context(), profile, services.CreateLogEntryInput{
		Date:               date,
		Location:           req.Location,
		Specialty:          req.Specialty,
		Hours:              req.Hours,
		Activities:         req.Activities,
		LearningObjectives: req.LearningObjectives,
		Reflection:         req.Reflection,
		SupervisorName:     req.SupervisorName,
		PatientsSeen:       req.PatientsSeen,
		PatientReferenceID: req.PatientReferenceID,
		PatientAgeGroup:    req.PatientAgeGroup,
		PatientGender:      req.PatientGender,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "Log entry created", entry)
}

// UpdateLogRequest carries editable fields; omitted fields stay unchanged
type UpdateLogRequest struct {
	Date               *string  `json:"date"`
	Location           *string  `json:"location"`
	Specialty          *string  `json:"specialty"`
	Hours              *float64 `json:"hours"`
	Activities         *string  `json:"activities"`
	LearningObjectives *string  `json:"learning_objectives"`
	Reflection         *string  `json:"reflection"`
	SupervisorName     *string  `json:"supervisor_name"`
	PatientsSeen       *int     `json:"patients_seen"`
}

// Update edits one of the student's own entries
func (h *LogHandler) Update(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid log entry id")
	}

	var req UpdateLogRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := services.UpdateLogEntryInput{
		Location:           req.Location,
		Specialty:          req.Specialty,
		Hours:              req.Hours,
		Activities:         req.Activities,
		LearningObjectives: req.LearningObjectives,
		Reflection:         req.Reflection,
		SupervisorName:     req.SupervisorName,
		PatientsSeen:       req.PatientsSeen,
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return response.ValidationError(c, "Date must be in YYYY-MM-DD format")
		}
		input.Date = &date
	}

	entry, err := h.logs.Update(c.Context(), profile, entryID, input)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Log entry updated", entry)
}

// Delete removes one of the student's own entries
func (h *LogHandler) Delete(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid log entry id")
	}

	if err := h.logs.Delete(c.Context(), profile, entryID); err != nil {
		return response.FromError(c, err)
	}

	return response.NoContent(c)
}

// Get returns one of the student's own entries
func (h *LogHandler) Get(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid log entry id")
	}

	entry, err := h.logs.Get(c.Context(), profile, entryID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, entry)
}

// List returns the student's entries, optionally filtered by status
func (h *LogHandler) List(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	status := c.Query("status")

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	entries, total, err := h.logs.ListForStudent(c.Context(), profile.ID, status, pagination.PerPage, offset)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Paginated(c, entries, response.CalculatePagination(page, limit, total))
}

// BulkLockRequest carries the entry ids to lock
type BulkLockRequest struct {
	EntryIDs []string `json:"entry_ids" validate:"required,min=1"`
}

// BulkLock locks a batch of the student's entries against further edits
func (h *LogHandler) BulkLock(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req BulkLockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	ids := make([]uuid.UUID, 0, len(req.EntryIDs))
	for _, raw := range req.EntryIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return response.ValidationError(c, "Invalid log entry id: "+raw)
		}
		ids = append(ids, id)
	}

	locked, err := h.logs.BulkLock(c.Context(), profile, ids)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMessage(c, "Log entries locked", fiber.Map{
		"requested": len(ids),
		"locked":    locked,
	})
}

// Stats returns the student's logbook summary
func (h *LogHandler) Stats(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	stats, err := h.stats.ForStudent(c.Context(), profile.ID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats)
}

// MonthlyTrend returns entry and hour totals per month
func (h *LogHandler) MonthlyTrend(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	months := c.QueryInt("months", services.DefaultTrendMonths)
	trend, err := h.stats.MonthlyTrend(c.Context(), profile.ID, months)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, trend)
}

// SpecialtyDistribution returns per-specialty totals
func (h *LogHandler) SpecialtyDistribution(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	topN := c.QueryInt("top", 0)
	distribution, err := h.stats.SpecialtyDistribution(c.Context(), profile.ID, topN)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, distribution)
}

// ExportFHIR returns the student's entries as a FHIR R4 Encounter bundle
func (h *LogHandler) ExportFHIR(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	entries, _, err := h.logs.ListForStudent(c.Context(), profile.ID, c.Query("status"), 0, 0)
	if err != nil {
		return response.FromError(c, err)
	}

	bundle := services.BuildEncounterBundle(entries, time.Now())
	return c.Status(fiber.StatusOK).JSON(bundle)
}

// ExportEntryFHIR returns one entry as a single-encounter FHIR bundle
func (h *LogHandler) ExportEntryFHIR(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid log entry id")
	}

	entry, err := h.logs.Get(c.Context(), profile, id)
	if err != nil {
		return response.FromError(c, err)
	}

	bundle := services.BuildEncounterBundle([]model.LogEntry{*entry}, time.Now())
	return c.Status(fiber.StatusOK).JSON(bundle)
}
