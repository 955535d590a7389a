// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"goon-fighter/models"
	"goon-fighter/services"

	"github.com/gofiber/fiber/v2"
)

const callerKey = "caller"

// UserContextMiddleware extracts the player identity and roles set by the
// Gateway. Requests without X-User-ID carry an anonymous caller; operations
// that need one reject it themselves.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))

		var roles []string
		if rolesStr := c.Get("X-User-Roles"); rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		c.Locals(callerKey, services.Caller{Principal: models.Principal(userID), Roles: roles})
		return c.Next()
	}
}

// RequireUser rejects requests that carry no player identity.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CallerFrom(c).Principal.IsAnonymous() {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing: %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CallerFrom(c).IsAdmin() {
			log.Printf("🚫 [USER_CTX] Admin role required for %s", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": services.ErrAdminOnly.Error()})
		}
		return c.Next()
	}
}

// CallerFrom returns the caller attached by UserContextMiddleware.
func CallerFrom(c *fiber.Ctx) services.Caller {
	caller, _ := c.Locals(callerKey).(services.Caller)
	return caller
}
