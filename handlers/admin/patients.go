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

// PatientHandler exposes admin patient management. Patients carry no
// personal data, only an opaque reference id scoped to an institution.
type PatientHandler struct {
	db    *gorm.DB
	audit *services.AuditRecorder
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(db *gorm.DB, audit *services.AuditRecorder) *PatientHandler {
	return &PatientHandler{db: db, audit: audit}
}

// PatientRequest carries patient fields
type PatientRequest struct {
	ReferenceID   string  `json:"reference_id" validate:"required"`
	InstitutionID *string `json:"institution_id"`
	AgeGroup      string  `json:"age_group"`
	Gender        string  `json:"gender"`
}

// Create registers a patient reference
func (h *PatientHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req PatientRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ReferenceID == "" {
		return response.ValidationError(c, "Reference id is required")
	}

	patient := model.Patient{
		ReferenceID: req.ReferenceID,
		AgeGroup:    req.AgeGroup,
		Gender:      req.Gender,
	}
	if req.InstitutionID != nil && *req.InstitutionID != "" {
		instID, err := uuid.Parse(*req.InstitutionID)
		if err != nil {
			return response.ValidationError(c, "Invalid institution id")
		}
		patient.InstitutionID = &instID
	}

	if err := h.db.Create(&patient).Error; err != nil {
		return response.Error(c, fiber.StatusConflict, "A patient with this reference already exists in this institution", "duplicate_entry")
	}

	h.audit.Record(c.Context(), &actor.ID, "create", "patient", patient.ID, fiber.Map{
		"reference_id": patient.ReferenceID,
	})

	return response.Created(c, "Patient created", patient)
}

// List returns patients, optionally filtered by institution
func (h *PatientHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	query := h.db.Model(&model.Patient{})
	if inst := c.Query("institution_id"); inst != "" {
		instID, err := uuid.Parse(inst)
		if err != nil {
			return response.ValidationError(c, "Invalid institution id")
		}
		query = query.Where("institution_id = ?", instID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count patients")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var patients []model.Patient
	if err := query.Order("created_at DESC").
		Offset(offset).Limit(pagination.PerPage).
		Find(&patients).Error; err != nil {
		return response.InternalServerError(c, "Failed to list patients")
	}

	return response.Paginated(c, patients, pagination)
}

// Get returns one patient
func (h *PatientHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid patient id")
	}

	var patient model.Patient
	if err := h.db.First(&patient, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Patient not found")
	}
	return response.Success(c, patient)
}

// UpdatePatientRequest carries the editable demographic fields. The
// reference id and institution stay fixed; they form the patient's identity.
type UpdatePatientRequest struct {
	AgeGroup         *string `json:"age_group"`
	Gender           *string `json:"gender"`
	ClinicalCategory *string `json:"clinical_category"`
}

// Update edits a patient's demographic fields
func (h *PatientHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid patient id")
	}

	var patient model.Patient
	if err := h.db.First(&patient, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Patient not found")
	}

	var req UpdatePatientRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.AgeGroup != nil {
		patient.AgeGroup = *req.AgeGroup
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.ClinicalCategory != nil {
		patient.ClinicalCategory = *req.ClinicalCategory
	}

	if err := h.db.Save(&patient).Error; err != nil {
		return response.InternalServerError(c, "Failed to update patient")
	}

	h.audit.Record(c.Context(), &actor.ID, "update", "patient", patient.ID, fiber.Map{
		"reference_id": patient.ReferenceID,
	})

	return response.SuccessWithMessage(c, "Patient updated", patient)
}

// Delete removes a patient. Log entries keep their text but drop the
// patient link; assignment rows referencing the patient are removed.
func (h *PatientHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid patient id")
	}

	var patient model.Patient
	if err := h.db.First(&patient, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "Patient not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.LogEntry{}).
			Where("patient_id = ?", patient.ID).
			Update("patient_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("patient_id = ?", patient.ID).
			Delete(&model.StudentPatientAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&patient).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete patient")
	}

	h.audit.Record(c.Context(), &actor.ID, "delete", "patient", patient.ID, fiber.Map{
		"reference_id": patient.ReferenceID,
	})

	return response.SuccessWithMessage(c, "Patient deleted", nil)
}
