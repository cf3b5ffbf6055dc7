package auth

import (
	"github.com/gofiber/fiber/v2"

	authutil "github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// Me returns the authenticated profile
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, toProfileResponse(profile))
}

// UpdateMeRequest carries the self-editable profile fields
type UpdateMeRequest struct {
	FullName string `json:"full_name"`
}

// UpdateMe lets the authenticated user edit their own display name
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.FullName == "" {
		return response.ValidationError(c, "Full name cannot be empty")
	}

	profile.FullName = req.FullName
	if err := h.db.Save(profile).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.SuccessWithMessage(c, "Profile updated", toProfileResponse(profile))
}

// ChangePasswordRequest carries the old and new password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword updates the password and bumps the token version so every
// previously issued token stops working
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Current and new password are required")
	}

	if err := authutil.VerifyPassword(profile.PasswordHash, req.CurrentPassword); err != nil {
		return response.Unauthorized(c, "Current password is incorrect")
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.ValidationError(c, "Password must be at least 8 characters")
	}

	profile.PasswordHash = hash
	profile.TokenVersion++
	if err := h.db.Save(profile).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	tokens, err := h.tokenPair(profile)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.SuccessWithMessage(c, "Password changed", tokens)
}
