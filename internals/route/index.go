// file: internals/route/index.go
package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"jadwalku_backend/internals/constants"
	scheduleCtrl "jadwalku_backend/internals/features/school/class_schedules/controller"
	scheduleRoute "jadwalku_backend/internals/features/school/class_schedules/route"
	authMiddleware "jadwalku_backend/internals/middlewares/auth"
	middlewares "jadwalku_backend/internals/middlewares"
)

var startTime time.Time

type Deps struct {
	Schedules *scheduleCtrl.ClassScheduleController
	Auth      authMiddleware.ActorJWTOpts
	// AdminRoles kosong = semua user login boleh mutasi
	AdminRoles []string
	Log        *slog.Logger
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	// ===================== PRIVATE (USER) =====================
	log.Info("setting up PRIVATE (read) group", slog.String("prefix", "/api/u"))
	user := app.Group("/api/u", authMiddleware.ActorJWT(deps.Auth))

	// ===================== ADMIN =====================
	log.Info("setting up ADMIN group", slog.String("prefix", "/api/a"))
	adminHandlers := []fiber.Handler{authMiddleware.ActorJWT(deps.Auth)}
	if len(deps.AdminRoles) > 0 {
		adminHandlers = append(adminHandlers, authMiddleware.OnlyRoles(constants.RoleErrorScheduler("ubah jadwal"), deps.AdminRoles...))
	}
	adminHandlers = append(adminHandlers, middlewares.MutationRateLimiter())
	admin := app.Group("/api/a", adminHandlers...)

	// ===================== MOUNT ROUTES =====================
	log.Info("mounting class schedule routes")
	scheduleRoute.ClassScheduleUserRoutes(user, deps.Schedules)
	scheduleRoute.ClassScheduleAdminRoutes(admin, deps.Schedules)
}
