package instructor

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// ReviewHandler exposes the preceptor's review endpoints
type ReviewHandler struct {
	logs *services.LogEntryService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(logs *services.LogEntryService) *ReviewHandler {
	return &ReviewHandler{logs: logs}
}

// Queue lists entries of the preceptor's assigned students, defaulting to
// the pending ones
func (h *ReviewHandler) Queue(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	status := c.Query("status", "pending")
	if status == "all" {
		status = ""
	}

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	entries, total, err := h.logs.ListForInstructor(c.Context(), profile, status, pagination.PerPage, offset)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Paginated(c, entries, response.CalculatePagination(page, limit, total))
}

// Get returns one entry of an assigned student
func (h *ReviewHandler) Get(c *fiber.Ctx) error {
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

// ReviewRequest carries the optional (approve) or required (reject) feedback
type ReviewRequest struct {
	Feedback string `json:"feedback"`
}

// Approve marks an assigned student's entry approved
func (h *ReviewHandler) Approve(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid log entry id")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body")
	}

	entry, err := h.logs.Approve(c.Context(), profile, entryID, req.Feedback)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Log entry approved", entry)
}

// Reject marks an assigned student's entry rejected; feedback is required
func (h *ReviewHandler) Reject(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid log entry id")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	entry, err := h.logs.Reject(c.Context(), profile, entryID, req.Feedback)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Log entry rejected", entry)
}
