package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/services"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// InstitutionHandler exposes admin institution management
type InstitutionHandler struct {
	db    *gorm.DB
	audit *services.AuditRecorder
}

// NewInstitutionHandler creates a new institution handler
func NewInstitutionHandler(db *gorm.DB, audit *services.AuditRecorder) *InstitutionHandler {
	return &InstitutionHandler{db: db, audit: audit}
}

// InstitutionRequest carries institution fields
type InstitutionRequest struct {
	Name string `json:"name" validate:"required"`
}

// Create adds a new institution
func (h *InstitutionHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req InstitutionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.ValidationError(c, "Name is required")
	}

	institution := model.Institution{Name: req.Name}
	if err := h.db.Create(&institution).Error; err != nil {
		return response.InternalServerError(c, "Failed to create institution")
	}

	h.audit.Record(c.Context(), &actor.ID, "create", "institution", institution.ID, fiber.Map{
		"name": institution.Name,
	})

	return response.Created(c, "Institution created", institution)
}

// List returns all institutions
func (h *InstitutionHandler) List(c *fiber.Ctx) error {
	var institutions []model.Institution
	if err := h.db.Order("name ASC").Find(&institutions).Error; err != nil {
		return response.InternalServerError(c, "Failed to list institutions")
	}
	return response.Success(c, institutions)
}

// Get returns one institution
func (h *InstitutionHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	var institution model.Institution
	if err := h.db.First(&institution, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Institution not found")
	}
	return response.Success(c, institution)
}

// Update renames an institution
func (h *InstitutionHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	var institution model.Institution
	if err := h.db.First(&institution, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Institution not found")
	}

	var req InstitutionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.ValidationError(c, "Name is required")
	}

	institution.Name = req.Name
	if err := h.db.Save(&institution).Error; err != nil {
		return response.InternalServerError(c, "Failed to update institution")
	}

	h.audit.Record(c.Context(), &actor.ID, "update", "institution", institution.ID, fiber.Map{
		"name": institution.Name,
	})

	return response.SuccessWithMessage(c, "Institution updated", institution)
}

// Delete removes an institution. Institutions that still have profiles or
// patients attached cannot be deleted.
func (h *InstitutionHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	var institution model.Institution
	if err := h.db.First(&institution, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Institution not found")
	}

	var members int64
	if err := h.db.Model(&model.Profile{}).Where("institution_id = ?", id).Count(&members).Error; err != nil {
		return response.InternalServerError(c, "Failed to check institution members")
	}
	var patients int64
	if err := h.db.Model(&model.Patient{}).Where("institution_id = ?", id).Count(&patients).Error; err != nil {
		return response.InternalServerError(c, "Failed to check institution patients")
	}
	if members > 0 || patients > 0 {
		return response.ValidationError(c, "Institution still has members or patients attached")
	}

	if err := h.db.Delete(&institution).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete institution")
	}

	h.audit.Record(c.Context(), &actor.ID, "delete", "institution", institution.ID, fiber.Map{
		"name": institution.Name,
	})

	return response.SuccessWithMessage(c, "Institution deleted", nil)
}
