package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"jadwalku_backend/internals/middlewares/logger"
)

// SetupMiddlewares: urutan penting (recover paling luar).
func SetupMiddlewares(app *fiber.App, timezone string) {
	app.Use(RecoveryMiddleware())
	app.Use(CorsMiddleware())
	app.Use(logger.LoggerMiddleware(timezone))
	app.Use(GlobalRateLimiter())
	app.Use(InstitutionTimezone(timezone))
}
