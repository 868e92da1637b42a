package routes

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck: ping store aktif (postgres / badger).
type HealthCheck func(ctx context.Context) error

func BaseRoutes(app *fiber.App, storeName string, check HealthCheck, gatherer prometheus.Gatherer) {
	if startTime.IsZero() {
		startTime = time.Now()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Jadwalku class schedule service 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if check != nil {
			if err := check(ctx); err != nil {
				dbStatus = "Store error: " + err.Error()
				serverStatus = "DOWN"
				httpStatus = fiber.StatusServiceUnavailable
			}
		}

		uptime := time.Since(startTime).Seconds()

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"store":          storeName,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(uptime),
			"environment":    os.Getenv("APP_ENV"),
		})
	})

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
