package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cliniclog/logbook-api/model"
	"github.com/cliniclog/logbook-api/utils/response"
)

// RequireRole ensures the authenticated profile holds one of the given roles.
// Must run after AuthMiddleware.Required.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, ok := CurrentProfile(c)
		if !ok {
			return response.Unauthorized(c, "Authentication required")
		}

		for _, role := range roles {
			if profile.Role == role {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Your role does not have permission for this operation")
	}
}

// RequireStudent restricts a route to students
func RequireStudent() fiber.Handler { return RequireRole(model.RoleStudent) }

// RequireInstructor restricts a route to instructors
func RequireInstructor() fiber.Handler { return RequireRole(model.RoleInstructor) }

// RequireAdmin restricts a route to admins
func RequireAdmin() fiber.Handler { return RequireRole(model.RoleAdmin) }
