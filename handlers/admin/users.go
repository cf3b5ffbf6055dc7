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

// UserHandler exposes admin user management
type UserHandler struct {
	db          *gorm.DB
	invitations *services.InvitationService
	audit       *services.AuditRecorder
}

// NewUserHandler creates a new admin user handler
func NewUserHandler(db *gorm.DB, invitations *services.InvitationService, audit *services.AuditRecorder) *UserHandler {
	return &UserHandler{
		db:          db,
		invitations: invitations,
		audit:       audit,
	}
}

// InviteRequest represents a new user invitation
type InviteRequest struct {
	Email         string     `json:"email" validate:"required,email"`
	FullName      string     `json:"full_name" validate:"required"`
	Role          model.Role `json:"role" validate:"required"`
	InstitutionID *string    `json:"institution_id"`
}

// Invite creates an invitation and its inactive profile
func (h *UserHandler) Invite(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var institutionID *uuid.UUID
	if req.InstitutionID != nil && *req.InstitutionID != "" {
		id, err := uuid.Parse(*req.InstitutionID)
		if err != nil {
			return response.ValidationError(c, "Invalid institution id")
		}
		institutionID = &id
	}

	invitation, err := h.invitations.Invite(c.Context(), profile, services.InviteInput{
		Email:         req.Email,
		FullName:      req.FullName,
		Role:          req.Role,
		InstitutionID: institutionID,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, "User invited", invitation)
}

// ListInvitations returns all invitations
func (h *UserHandler) ListInvitations(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	invitations, err := h.invitations.ListInvitations(c.Context(), profile)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, invitations)
}

// List returns all profiles, optionally filtered by role
func (h *UserHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	role := c.Query("role")

	query := h.db.Model(&model.Profile{})
	if role != "" {
		if !model.Role(role).Valid() {
			return response.ValidationError(c, "Unknown role")
		}
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var profiles []model.Profile
	if err := query.Preload("Institution").
		Order("created_at DESC").
		Offset(offset).Limit(pagination.PerPage).
		Find(&profiles).Error; err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Paginated(c, profiles, pagination)
}

// Get returns one profile
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var profile model.Profile
	if err := h.db.Preload("Institution").First(&profile, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "User not found")
	}
	return response.Success(c, profile)
}

// UpdateUserRequest carries the admin-editable profile fields
type UpdateUserRequest struct {
	FullName      *string `json:"full_name"`
	InstitutionID *string `json:"institution_id"`
}

// Update edits a profile's name or institution. Roles are fixed at
// invitation time; changing one means inviting a new account.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var profile model.Profile
	if err := h.db.First(&profile, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.FullName != nil {
		if *req.FullName == "" {
			return response.ValidationError(c, "Full name cannot be empty")
		}
		profile.FullName = *req.FullName
	}
	if req.InstitutionID != nil {
		if *req.InstitutionID == "" {
			profile.InstitutionID = nil
		} else {
			instID, err := uuid.Parse(*req.InstitutionID)
			if err != nil {
				return response.ValidationError(c, "Invalid institution id")
			}
			var institution model.Institution
			if err := h.db.First(&institution, "id = ?", instID).Error; err != nil {
				return response.NotFound(c, "Institution not found")
			}
			profile.InstitutionID = &instID
		}
	}

	if err := h.db.Save(&profile).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	h.audit.Record(c.Context(), &actor.ID, "update", "profile", profile.ID, nil)

	return response.SuccessWithMessage(c, "User updated", profile)
}

// Delete removes a profile and its dependent rows. Admins cannot delete
// their own account.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}
	if id == actor.ID {
		return response.ValidationError(c, "You cannot delete your own account")
	}

	var profile model.Profile
	if err := h.db.First(&profile, "id = ?", id).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ? OR preceptor_id = ?", profile.ID, profile.ID).
			Delete(&model.StudentPreceptorAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", profile.ID).
			Delete(&model.StudentPatientAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&profile).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	h.audit.Record(c.Context(), &actor.ID, "delete", "profile", profile.ID, nil)

	return response.SuccessWithMessage(c, "User deleted", nil)
}
