// file: internals/features/school/class_schedules/controller/class_schedule_get_controller.go
package controller

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	d "jadwalku_backend/internals/features/school/class_schedules/dto"
	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	helper "jadwalku_backend/internals/helpers"
	"jadwalku_backend/internals/helpers/dbtime"
)

const (
	defaultPerPage = 20
	maxPerPage     = 200
)

// ParseBoolLoose: "1/true/yes/on" dst. ok=false kalau kosong / tidak dikenal.
func ParseBoolLoose(s string) (bool, bool) {
	if s == "" {
		return false, false // not present
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// filterFromQuery: ?room&instructor&instructor_email&section&course&year_level (OR)
func filterFromQuery(c *fiber.Ctx) repo.Filter {
	return repo.Filter{
		Room:            strings.TrimSpace(c.Query("room")),
		Instructor:      strings.TrimSpace(c.Query("instructor")),
		InstructorEmail: strings.TrimSpace(c.Query("instructor_email")),
		Section:         strings.TrimSpace(c.Query("section")),
		Course:          strings.TrimSpace(c.Query("course")),
		YearLevel:       strings.TrimSpace(c.Query("year_level")),
	}
}

// urutan list: hari pertama → jam mulai → ruangan. Data rusak ditaruh paling akhir.
func sortSchedules(rows []m.ClassScheduleModel) {
	key := func(r *m.ClassScheduleModel) (int, int) {
		days := r.Days().Days()
		rg, ok := r.Range()
		if len(days) == 0 || !ok {
			return 99, 0
		}
		return int(days[0]), int(rg.Start())
	}
	slices.SortStableFunc(rows, func(a, b m.ClassScheduleModel) int {
		ad, as := key(&a)
		bd, bs := key(&b)
		if ad != bd {
			return ad - bd
		}
		if as != bs {
			return as - bs
		}
		return strings.Compare(strings.ToLower(a.ClassScheduleRoom), strings.ToLower(b.ClassScheduleRoom))
	})
}

/* =========================
   List & detail
   ========================= */

// GET /list?day=Monday&room=R101&include_archived=true&page=1&per_page=20
func (ctl *ClassScheduleController) List(c *fiber.Ctx) error {
	f := filterFromQuery(c)
	f.ActiveOnly = true

	if raw := strings.TrimSpace(c.Query("include_archived")); raw != "" {
		v, ok := ParseBoolLoose(raw)
		if !ok {
			return helper.JsonError(c, fiber.StatusBadRequest, "include_archived harus boolean")
		}
		f.ActiveOnly = !v
	}
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		f.Days = dbtime.ParseDays(raw)
		if f.Days.Empty() {
			return helper.JsonError(c, fiber.StatusBadRequest, "day tidak dikenal: "+raw)
		}
	}

	rows, err := ctl.Svc.List(c.UserContext(), f)
	if err != nil {
		return ctl.writeServiceError(c, "list", err)
	}
	sortSchedules(rows)

	pg := helper.ResolvePaging(c, defaultPerPage, maxPerPage)
	total := len(rows)
	from := min(pg.Offset, total)
	to := min(from+pg.Limit, total)

	return helper.JsonList(c, "ok",
		d.NewClassScheduleResponses(rows[from:to]),
		helper.BuildPaginationFromPage(int64(total), pg.Page, pg.PerPage),
	)
}

func (ctl *ClassScheduleController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	rec, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return ctl.writeServiceError(c, "get", err)
	}
	setETag(c, rec.ClassScheduleVersion)
	return helper.JsonOK(c, "ok", d.NewClassScheduleResponse(rec))
}

// GET /:id/transactions: audit trail urut waktu (lama → baru).
func (ctl *ClassScheduleController) Transactions(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	list, err := ctl.Svc.Transactions(c.UserContext(), id)
	if err != nil {
		return ctl.writeServiceError(c, "transactions", err)
	}
	if list == nil {
		list = []m.ClassScheduleTransactionModel{}
	}
	return helper.JsonOK(c, "ok", list)
}

/* =========================
   Availability
   ========================= */

// GET /availability?day=Monday&room=R101&min_minutes=90
// day kosong → hari ini (timezone institusi).
func (ctl *ClassScheduleController) Availability(c *fiber.Ctx) error {
	day := dbtime.TodayWeekday(c)
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		wd, ok := dbtime.ParseWeekday(raw)
		if !ok {
			return helper.JsonError(c, fiber.StatusBadRequest, "day tidak dikenal: "+raw)
		}
		day = wd
	}
	f := filterFromQuery(c)

	a, err := ctl.Svc.Availability(c.UserContext(), day, f)
	if err != nil {
		return ctl.writeServiceError(c, "availability", err)
	}
	out := d.NewAvailabilityResponse(a)

	if raw := strings.TrimSpace(c.Query("min_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return helper.JsonError(c, fiber.StatusBadRequest, "min_minutes harus bilangan positif")
		}
		slots, err := ctl.Svc.SuggestSlots(c.UserContext(), day, f, dbtime.Minutes(n))
		if err != nil {
			return ctl.writeServiceError(c, "suggest_slots", err)
		}
		out.Suggested = d.NewIntervalResponses(slots)
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /availability/weekly?instructor=Ana%20Cruz
func (ctl *ClassScheduleController) WeeklyAvailability(c *fiber.Ctx) error {
	list, err := ctl.Svc.WeeklyAvailability(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return ctl.writeServiceError(c, "weekly_availability", err)
	}
	out := make([]d.AvailabilityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, d.NewAvailabilityResponse(a))
	}
	return helper.JsonOK(c, "ok", out)
}
