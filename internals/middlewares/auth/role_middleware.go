package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// OnlyRoles: lolos kalau salah satu roles_global (diisi ActorJWT) ada di allowedRoles.
func OnlyRoles(customForbiddenMessage string, allowedRoles ...string) fiber.Handler {
	if customForbiddenMessage == "" {
		customForbiddenMessage = "Forbidden: you are not authorized to access this resource"
	}
	return func(c *fiber.Ctx) error {
		roles, ok := c.Locals(LocRoles).([]string)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		for _, r := range roles {
			for _, allowed := range allowedRoles {
				if strings.EqualFold(r, allowed) {
					return c.Next()
				}
			}
		}
		return fiber.NewError(fiber.StatusForbidden, customForbiddenMessage)
	}
}
