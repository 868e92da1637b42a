package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "jadwalku_backend/internals/helpers"
)

// Global limiter: semua endpoint, per IP
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.")
		},
	})
}

// MutationRateLimiter: per actor (dipasang setelah ActorJWT), fallback IP. GET tidak dihitung.
func MutationRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			if actor, err := helper.GetActorID(c); err == nil {
				return "actor:" + actor
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "❌ Terlalu banyak perubahan jadwal. Tunggu sebentar ya.")
		},
	})
}
