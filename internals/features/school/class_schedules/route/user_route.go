// file: internals/features/school/class_schedules/route/user_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "jadwalku_backend/internals/features/school/class_schedules/controller"
)

// ClassScheduleUserRoutes: read-only.
//
//	GET /api/u/class-schedules/list
//	GET /api/u/class-schedules/availability?day=Monday&room=R101&min_minutes=90
//	GET /api/u/class-schedules/availability/weekly?instructor=Ana%20Cruz
//	GET /api/u/class-schedules/:id
func ClassScheduleUserRoutes(user fiber.Router, sched *ctrl.ClassScheduleController) {
	grp := user.Group("/class-schedules")

	// static path dulu, baru :id
	grp.Get("/list", sched.List)
	grp.Get("/availability", sched.Availability)
	grp.Get("/availability/weekly", sched.WeeklyAvailability)
	grp.Get("/:id", sched.GetByID)
}
