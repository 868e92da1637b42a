package middlewares

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"jadwalku_backend/internals/helpers/dbtime"
)

// InstitutionTimezone mengisi locals timezone (dipakai ?day= default = hari ini).
// Header X-Timezone boleh override kalau valid.
func InstitutionTimezone(tz string) fiber.Handler {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		loc = nil
	}
	return func(c *fiber.Ctx) error {
		if h := strings.TrimSpace(c.Get("X-Timezone")); h != "" {
			if l, err := time.LoadLocation(h); err == nil {
				c.Locals(dbtime.LocInstitutionTimezone, h)
				c.Locals(dbtime.LocInstitutionLoc, l)
				return c.Next()
			}
		}
		if loc != nil {
			c.Locals(dbtime.LocInstitutionTimezone, tz)
			c.Locals(dbtime.LocInstitutionLoc, loc)
		}
		return c.Next()
	}
}
