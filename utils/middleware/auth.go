package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/auth"
	"github.com/cliniclog/logbook-api/utils/response"
)

// Locals keys set by the auth middleware
const (
	LocalProfile   = "profile"
	LocalProfileID = "profile_id"
	LocalRole      = "role"
	LocalClaims    = "claims"
	LocalTokenJTI  = "token_jti"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// Required is middleware that requires a valid JWT token.
// The caller's profile is loaded and stored in Locals, so every operation
// downstream receives an explicit identity instead of an ambient lookup.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		if claims.TokenType != "access" {
			return response.Unauthorized(c, "Invalid token type")
		}

		isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check token status")
		}
		if isRevoked {
			return response.Unauthorized(c, "Token has been revoked")
		}

		var profile model.Profile
		if err := m.db.First(&profile, "id = ?", claims.ProfileID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.Unauthorized(c, "Profile not found")
			}
			return response.InternalServerError(c, "Failed to load profile")
		}

		if profile.TokenVersion != claims.TokenVersion {
			return response.Unauthorized(c, "Token has been invalidated")
		}

		c.Locals(LocalProfile, &profile)
		c.Locals(LocalProfileID, profile.ID)
		c.Locals(LocalRole, profile.Role)
		c.Locals(LocalClaims, claims)
		c.Locals(LocalTokenJTI, claims.ID)

		return c.Next()
	}
}

// CurrentProfile returns the authenticated profile stored by Required
func CurrentProfile(c *fiber.Ctx) (*model.Profile, bool) {
	profile, ok := c.Locals(LocalProfile).(*model.Profile)
	return profile, ok && profile != nil
}
