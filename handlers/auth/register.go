package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/utils/response"
)

// RegisterRequest represents an invitee completing their registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register activates an invited profile by setting its password. Only
// emails an admin has invited can register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	profile, err := h.invitations.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		return response.FromError(c, err)
	}

	tokens, err := h.tokenPair(profile)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}

	return response.Created(c, "Registration successful", tokens)
}
