package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/scriptsure-ai/grading-api/internal/models"
	"github.com/scriptsure-ai/grading-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// Role restricts access to callers holding the given role. ADMIN also
	// admits TEACHER. Empty means any authenticated identity.
	Role string
}

// WithAuth wraps a handler with authentication/authorization guards on top of
// the identity extracted by JWTProtected.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToUpper(strings.TrimSpace(opts.Role))

	return func(c *fiber.Ctx) error {
		if CurrentUserID(c) == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if role == "" {
			return handler(c)
		}

		currentRole := CurrentUserRole(c)
		switch role {
		case models.RoleAdmin:
			if currentRole != models.RoleAdmin && currentRole != models.RoleTeacher {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		default:
			if currentRole != role {
				return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
			}
		}

		return handler(c)
	}
}
