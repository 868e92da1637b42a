// file: internals/features/school/class_schedules/route/admin_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	ctrl "jadwalku_backend/internals/features/school/class_schedules/controller"
)

// ClassScheduleAdminRoutes: semua mutasi (butuh actor dari token).
func ClassScheduleAdminRoutes(admin fiber.Router, sched *ctrl.ClassScheduleController) {
	grp := admin.Group("/class-schedules")

	grp.Post("/", sched.Create)
	grp.Post("/bulk", sched.BulkCreate)
	grp.Post("/check", sched.Check) // dry run bentrok

	grp.Patch("/:id", sched.Patch)
	grp.Post("/:id/archive", sched.Archive)
	grp.Post("/:id/restore", sched.Restore)
	grp.Delete("/:id", sched.Delete) // wajib If-Match

	grp.Get("/:id/transactions", sched.Transactions)
}
