// file: internals/features/school/class_schedules/controller/class_schedule_controller.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	d "jadwalku_backend/internals/features/school/class_schedules/dto"
	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/features/school/class_schedules/notifier"
	"jadwalku_backend/internals/features/school/class_schedules/service"
	helper "jadwalku_backend/internals/helpers"
)

/* =========================
   Controller & Constructor
   ========================= */

type ClassScheduleController struct {
	Svc        *service.ScheduleService
	Dispatcher *notifier.Dispatcher
	Validate   *validator.Validate
	Log        *slog.Logger
}

func New(svc *service.ScheduleService, dispatcher *notifier.Dispatcher, v *validator.Validate, log *slog.Logger) *ClassScheduleController {
	if v == nil {
		v = d.NewValidator()
	}
	if log == nil {
		log = slog.Default()
	}
	return &ClassScheduleController{Svc: svc, Dispatcher: dispatcher, Validate: v, Log: log}
}

/* =========================
   Helpers
   ========================= */

// --- PG error mapping (pgx/libpq) ---
func mapPGError(err error) (int, string) {
	// pgx
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		switch pgxErr.Code {
		case "23505":
			return http.StatusConflict, "Data duplikat (unique violation)."
		case "40001", "40P01":
			return http.StatusConflict, "Data sedang diubah proses lain, silakan coba lagi."
		default:
			return http.StatusInternalServerError, pgxErr.Message
		}
	}
	// lib/pq
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "23505":
			return http.StatusConflict, "Data duplikat (unique violation)."
		case "40001", "40P01":
			return http.StatusConflict, "Data sedang diubah proses lain, silakan coba lagi."
		default:
			return http.StatusInternalServerError, pqErr.Error()
		}
	}
	return http.StatusInternalServerError, err.Error()
}

type errorInfo struct {
	status int
	code   string
	msg    string
	fields map[string][]string
	data   any
}

// describeError: satu tempat mapping error service → HTTP (dipakai juga per item bulk).
func describeError(err error) errorInfo {
	var (
		vErr   *service.ValidationError
		cErr   *service.ConflictError
		verErr *service.VersionConflictError
		exErr  *service.RetryExhaustedError
	)
	switch {
	case errors.As(err, &vErr):
		return errorInfo{status: http.StatusUnprocessableEntity, code: "VALIDATION_ERROR", msg: "validation failed", fields: vErr.Fields}

	case errors.As(err, &cErr):
		return errorInfo{
			status: http.StatusConflict,
			code:   "SCHEDULE_CONFLICT",
			msg:    cErr.Error(),
			data:   d.NewConflictResponse(cErr.Kind, &cErr.Existing, cErr.SharedDays, cErr.ExistingRange),
		}

	case errors.As(err, &verErr):
		return errorInfo{
			status: http.StatusConflict,
			code:   "VERSION_CONFLICT",
			msg:    "Jadwal sudah diubah orang lain, muat ulang lalu coba lagi.",
			data: fiber.Map{
				"class_schedule_id": verErr.ID,
				"expected_version":  verErr.Expected,
				"current_version":   verErr.Current,
			},
		}

	case errors.Is(err, service.ErrNotFound):
		return errorInfo{status: http.StatusNotFound, code: "NOT_FOUND", msg: "Jadwal tidak ditemukan"}

	case errors.As(err, &exErr) && errors.Is(err, service.ErrVersionConflict):
		return errorInfo{
			status: http.StatusConflict,
			code:   "VERSION_CONFLICT",
			msg:    fmt.Sprintf("Jadwal terus berubah, gagal setelah %d percobaan.", exErr.Attempts),
			data:   fiber.Map{"attempts": exErr.Attempts},
		}

	case errors.Is(err, service.ErrStoreUnavailable):
		return errorInfo{status: http.StatusServiceUnavailable, code: "SERVICE_UNAVAILABLE", msg: "Penyimpanan jadwal sedang tidak tersedia"}

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errorInfo{status: http.StatusRequestTimeout, code: "TIMEOUT", msg: "Request timeout"}
	}

	status, msg := mapPGError(err)
	return errorInfo{status: status, msg: msg}
}

func (ctl *ClassScheduleController) writeServiceError(c *fiber.Ctx, op string, err error) error {
	info := describeError(err)
	if info.status >= http.StatusInternalServerError {
		ctl.Log.Error("class schedule request failed",
			slog.String("op", op),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
	}
	if info.fields != nil {
		return helper.JsonValidationError(c, info.fields)
	}
	return helper.JsonErrorWithData(c, info.status, info.code, info.msg, info.data)
}

func bulkItemError(err error) d.BulkItemError {
	info := describeError(err)
	code := info.code
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return d.BulkItemError{Message: info.msg, Code: code, Fields: info.fields}
}

// parseVersionToken: `W/"3"`, `"3"`, atau `3`.
func parseVersionToken(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "versi tidak valid: "+raw)
	}
	return &v, nil
}

// expectedVersion: If-Match header, ?version=, atau body. Kalau lebih dari satu diisi harus sama.
func expectedVersion(c *fiber.Ctx, fromBody *int64) (*int64, error) {
	var found *int64
	for _, raw := range []string{c.Get(fiber.HeaderIfMatch), c.Query("version")} {
		v, err := parseVersionToken(raw)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if found != nil && *found != *v {
			return nil, fiber.NewError(fiber.StatusBadRequest, "versi di header dan query berbeda")
		}
		found = v
	}
	if fromBody != nil {
		if found != nil && *found != *fromBody {
			return nil, fiber.NewError(fiber.StatusBadRequest, "class_schedule_version berbeda dengan If-Match")
		}
		found = fromBody
	}
	return found, nil
}

func setETag(c *fiber.Ctx, version int64) {
	c.Set(fiber.HeaderETag, fmt.Sprintf(`W/"%d"`, version))
}

// bindBody: false = response error (400/422) sudah ditulis.
func (ctl *ClassScheduleController) bindBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid: "+err.Error())
	}
	if err := ctl.Validate.Struct(out); err != nil {
		return false, helper.JsonValidationError(c, d.FieldErrors(err))
	}
	return true, nil
}

/* =========================
   Create
   ========================= */

func (ctl *ClassScheduleController) Create(c *fiber.Ctx) error {
	actorID, err := helper.GetActorID(c)
	if err != nil {
		return err
	}
	var req d.CreateClassScheduleRequest
	if ok, err := ctl.bindBody(c, &req); !ok {
		return err
	}

	res, err := ctl.Svc.Create(c.UserContext(), actorID, req.ToInput())
	if err != nil {
		return ctl.writeServiceError(c, "create", err)
	}
	ctl.Dispatcher.Dispatch(c.UserContext(), res.Events)

	setETag(c, res.Record.ClassScheduleVersion)
	return helper.JsonCreated(c, "Jadwal berhasil dibuat", d.NewMutationResponse(res))
}

// POST /bulk: tiap item diproses sendiri; 207 kalau sebagian gagal.
func (ctl *ClassScheduleController) BulkCreate(c *fiber.Ctx) error {
	actorID, err := helper.GetActorID(c)
	if err != nil {
		return err
	}
	var req d.BulkCreateClassScheduleRequest
	if ok, err := ctl.bindBody(c, &req); !ok {
		return err
	}

	res, err := ctl.Svc.BulkCreate(c.UserContext(), actorID, req.ToInputs())
	if err != nil {
		return ctl.writeServiceError(c, "bulk_create", err)
	}
	ctl.Dispatcher.Dispatch(c.UserContext(), res.Events)

	body := d.NewBulkResponse(res, bulkItemError)
	switch res.Status {
	case m.TransactionSuccess:
		return helper.JsonCreated(c, "Semua jadwal berhasil dibuat", body)
	case m.TransactionPartial:
		return helper.JsonMultiStatus(c, "Sebagian jadwal gagal dibuat", body)
	default:
		return helper.JsonErrorWithData(c, fiber.StatusUnprocessableEntity, "BULK_FAILED", "Tidak ada jadwal yang berhasil dibuat", body)
	}
}

// POST /check: dry run, tidak menulis apa pun.
func (ctl *ClassScheduleController) Check(c *fiber.Ctx) error {
	var req d.CheckConflictRequest
	if ok, err := ctl.bindBody(c, &req); !ok {
		return err
	}
	exclude := uuid.Nil
	if req.ExcludeID != nil {
		exclude = *req.ExcludeID
	}

	list, err := ctl.Svc.CheckConflict(c.UserContext(), req.ToInput(), exclude)
	if err != nil {
		return ctl.writeServiceError(c, "check", err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"has_conflict": len(list) > 0,
		"conflicts":    d.NewConflictResponses(list),
	})
}

/* =========================
   Update / Archive / Restore / Delete
   ========================= */

func (ctl *ClassScheduleController) Patch(c *fiber.Ctx) error {
	actorID, err := helper.GetActorID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req d.PatchClassScheduleRequest
	if ok, err := ctl.bindBody(c, &req); !ok {
		return err
	}
	ver, err := expectedVersion(c, req.ClassScheduleVersion)
	if err != nil {
		return err
	}
	patch := req.ToPatch()
	patch.ExpectedVersion = ver

	res, err := ctl.Svc.Update(c.UserContext(), actorID, id, patch)
	if err != nil {
		return ctl.writeServiceError(c, "update", err)
	}
	ctl.Dispatcher.Dispatch(c.UserContext(), res.Events)

	setETag(c, res.Record.ClassScheduleVersion)
	return helper.JsonUpdated(c, "Jadwal berhasil diperbarui", d.NewMutationResponse(res))
}

func (ctl *ClassScheduleController) Archive(c *fiber.Ctx) error {
	return ctl.toggleArchive(c, true)
}

func (ctl *ClassScheduleController) Restore(c *fiber.Ctx) error {
	return ctl.toggleArchive(c, false)
}

func (ctl *ClassScheduleController) toggleArchive(c *fiber.Ctx, archive bool) error {
	actorID, err := helper.GetActorID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req d.VersionRequest
	if len(c.Body()) > 0 {
		if ok, err := ctl.bindBody(c, &req); !ok {
			return err
		}
	}
	ver, err := expectedVersion(c, req.ClassScheduleVersion)
	if err != nil {
		return err
	}

	var (
		res *service.MutationResult
		op  = "archive"
		msg = "Jadwal berhasil diarsipkan"
	)
	if archive {
		res, err = ctl.Svc.Archive(c.UserContext(), actorID, id, ver)
	} else {
		op, msg = "restore", "Jadwal berhasil dipulihkan"
		res, err = ctl.Svc.Restore(c.UserContext(), actorID, id, ver)
	}
	if err != nil {
		return ctl.writeServiceError(c, op, err)
	}
	ctl.Dispatcher.Dispatch(c.UserContext(), res.Events)

	setETag(c, res.Record.ClassScheduleVersion)
	return helper.JsonUpdated(c, msg, d.NewMutationResponse(res))
}

// DELETE /:id: hard delete wajib bawa versi (If-Match atau ?version=).
func (ctl *ClassScheduleController) Delete(c *fiber.Ctx) error {
	actorID, err := helper.GetActorID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	ver, err := expectedVersion(c, nil)
	if err != nil {
		return err
	}
	if ver == nil {
		return helper.JsonError(c, fiber.StatusPreconditionRequired, "Hapus jadwal wajib menyertakan versi (If-Match)")
	}

	res, err := ctl.Svc.Delete(c.UserContext(), actorID, id, ver)
	if err != nil {
		return ctl.writeServiceError(c, "delete", err)
	}
	ctl.Dispatcher.Dispatch(c.UserContext(), res.Events)

	return helper.JsonDeleted(c, "Jadwal berhasil dihapus", d.NewMutationResponse(res))
}
