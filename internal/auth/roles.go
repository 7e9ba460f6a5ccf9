package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/techdesk/pkg/util"
)

// RequireAgent ensures the caller holds the agent/admin role.
func RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.IsAgent() {
			return apperrors.NewForbidden("agent role required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures any authenticated caller.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
