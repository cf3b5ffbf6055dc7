package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/model"
	authutil "github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/middleware"
	"github.com/cliniclog/logbook-api/utils/response"
)

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a valid refresh token for a new token pair. The used
// refresh token is revoked so it cannot be replayed.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Token is not a refresh token")
	}

	revoked, err := h.blacklist.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return response.Unauthorized(c, "Refresh token has been revoked")
	}

	var profile model.Profile
	if err := h.db.First(&profile, "id = ?", claims.ProfileID).Error; err != nil {
		return response.Unauthorized(c, "Profile no longer exists")
	}
	if profile.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	// One-time use: revoke the presented refresh token
	if err := h.blacklist.RevokeToken(c.Context(), claims.ID, profile.ID, claims.ExpiresAt.Time, "refresh_rotated"); err != nil {
		return response.InternalServerError(c, "Failed to rotate refresh token")
	}

	tokens, err := h.tokenPair(&profile)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.SuccessWithMessage(c, "Token refreshed", tokens)
}

// LogoutRequest optionally carries the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the current access token, and the refresh token when provided
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	profile, ok := middleware.CurrentProfile(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if claims, ok := c.Locals(middleware.LocalClaims).(*authutil.Claims); ok {
		if err := h.blacklist.RevokeToken(c.Context(), claims.ID, profile.ID, claims.ExpiresAt.Time, "logout"); err != nil {
			return response.InternalServerError(c, "Failed to revoke token")
		}
	}

	var req LogoutRequest
	if err := c.BodyParser(&req); err == nil && req.RefreshToken != "" {
		if claims, err := h.jwtManager.ValidateToken(req.RefreshToken); err == nil && claims.TokenType == "refresh" {
			_ = h.blacklist.RevokeToken(c.Context(), claims.ID, profile.ID, claims.ExpiresAt.Time, "logout")
		}
	}

	return response.SuccessWithMessage(c, "Logged out", nil)
}
