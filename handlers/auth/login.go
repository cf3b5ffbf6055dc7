package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/model"
	authutil "github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/response"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a registered profile and issues a token pair
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()

	var profile model.Profile
	if err := h.db.Where("email = ?", req.Email).First(&profile).Error; err != nil {
		// Record failed attempt even if the profile does not exist
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	// Invited but not yet registered profiles have no password
	if profile.PasswordHash == "" {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := authutil.VerifyPassword(profile.PasswordHash, req.Password); err != nil {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
	}

	tokens, err := h.tokenPair(&profile)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.SuccessWithMessage(c, "Login successful", tokens)
}
