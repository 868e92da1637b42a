// file: internals/features/school/class_schedules/dto/class_schedule_dto.go
package dto

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/features/school/class_schedules/service"
	"jadwalku_backend/internals/helpers/dbtime"
)

/* =========================================================
   Validator
   ========================================================= */

// NewValidator: nama field di error = nama json (class_schedule_room, bukan ClassScheduleRoom).
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors mengubah error validator → map field → pesan (shape helper.JsonValidationError).
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, "[") {
			// items[2].class_schedule_room
			if i := strings.Index(ns, "."); i >= 0 {
				field = ns[i+1:]
			}
		}
		out[field] = append(out[field], ruleMessage(fe))
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "email":
		return "format email tidak valid"
	case "max":
		return "maksimal " + fe.Param() + " karakter"
	case "min":
		return "minimal " + fe.Param()
	}
	return "tidak valid (" + fe.Tag() + ")"
}

/* =========================================================
   1) REQUESTS
   ========================================================= */

type CreateClassScheduleRequest struct {
	ClassScheduleCourse          string  `json:"class_schedule_course"           validate:"required,max=80"`
	ClassScheduleYearLevel       string  `json:"class_schedule_year_level"       validate:"required,max=20"`
	ClassScheduleSection         string  `json:"class_schedule_section"          validate:"required,max=40"`
	ClassScheduleSubject         string  `json:"class_schedule_subject"          validate:"required,max=160"`
	ClassScheduleInstructorName  string  `json:"class_schedule_instructor_name"  validate:"required,max=120"`
	ClassScheduleInstructorEmail *string `json:"class_schedule_instructor_email" validate:"omitempty,email,max=160"`
	ClassScheduleDay             string  `json:"class_schedule_day"              validate:"required,max=80"`
	ClassScheduleTimeRange       string  `json:"class_schedule_time_range"       validate:"required,max=40"`
	ClassScheduleRoom            string  `json:"class_schedule_room"             validate:"required,max=60"`
}

func (r CreateClassScheduleRequest) ToInput() service.ScheduleInput {
	return service.ScheduleInput{
		Course:          r.ClassScheduleCourse,
		YearLevel:       r.ClassScheduleYearLevel,
		Section:         r.ClassScheduleSection,
		Subject:         r.ClassScheduleSubject,
		InstructorName:  r.ClassScheduleInstructorName,
		InstructorEmail: r.ClassScheduleInstructorEmail,
		Day:             r.ClassScheduleDay,
		TimeRange:       r.ClassScheduleTimeRange,
		Room:            r.ClassScheduleRoom,
	}
}

type BulkCreateClassScheduleRequest struct {
	Items []CreateClassScheduleRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

func (r BulkCreateClassScheduleRequest) ToInputs() []service.ScheduleInput {
	out := make([]service.ScheduleInput, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.ToInput()
	}
	return out
}

// Patch (partial). class_schedule_version opsional; kalau diisi → tidak ada auto-retry.
type PatchClassScheduleRequest struct {
	ClassScheduleCourse          *string `json:"class_schedule_course"           validate:"omitempty,max=80"`
	ClassScheduleYearLevel       *string `json:"class_schedule_year_level"       validate:"omitempty,max=20"`
	ClassScheduleSection         *string `json:"class_schedule_section"          validate:"omitempty,max=40"`
	ClassScheduleSubject         *string `json:"class_schedule_subject"          validate:"omitempty,max=160"`
	ClassScheduleInstructorName  *string `json:"class_schedule_instructor_name"  validate:"omitempty,max=120"`
	ClassScheduleInstructorEmail *string `json:"class_schedule_instructor_email" validate:"omitempty,email,max=160"`
	ClassScheduleDay             *string `json:"class_schedule_day"              validate:"omitempty,max=80"`
	ClassScheduleTimeRange       *string `json:"class_schedule_time_range"       validate:"omitempty,max=40"`
	ClassScheduleRoom            *string `json:"class_schedule_room"             validate:"omitempty,max=60"`

	ClassScheduleVersion *int64 `json:"class_schedule_version" validate:"omitempty,min=0"`
}

func (r PatchClassScheduleRequest) ToPatch() service.SchedulePatch {
	return service.SchedulePatch{
		Course:          r.ClassScheduleCourse,
		YearLevel:       r.ClassScheduleYearLevel,
		Section:         r.ClassScheduleSection,
		Subject:         r.ClassScheduleSubject,
		InstructorName:  r.ClassScheduleInstructorName,
		InstructorEmail: r.ClassScheduleInstructorEmail,
		Day:             r.ClassScheduleDay,
		TimeRange:       r.ClassScheduleTimeRange,
		Room:            r.ClassScheduleRoom,
		ExpectedVersion: r.ClassScheduleVersion,
	}
}

// Body opsional untuk archive/restore.
type VersionRequest struct {
	ClassScheduleVersion *int64 `json:"class_schedule_version" validate:"omitempty,min=0"`
}

type CheckConflictRequest struct {
	CreateClassScheduleRequest
	ExcludeID *uuid.UUID `json:"exclude_id"`
}

/* =========================================================
   2) RESPONSES
   ========================================================= */

type ClassScheduleResponse struct {
	ClassScheduleID              uuid.UUID `json:"class_schedule_id"`
	ClassScheduleCourse          string    `json:"class_schedule_course"`
	ClassScheduleYearLevel       string    `json:"class_schedule_year_level"`
	ClassScheduleSection         string    `json:"class_schedule_section"`
	ClassScheduleSubject         string    `json:"class_schedule_subject"`
	ClassScheduleInstructorName  string    `json:"class_schedule_instructor_name"`
	ClassScheduleInstructorEmail *string   `json:"class_schedule_instructor_email,omitempty"`
	ClassScheduleDay             string    `json:"class_schedule_day"`
	ClassScheduleTimeRange       string    `json:"class_schedule_time_range"`
	ClassScheduleRoom            string    `json:"class_schedule_room"`
	ClassScheduleIsArchived      bool      `json:"class_schedule_is_archived"`
	ClassScheduleExternalRef     *string   `json:"class_schedule_external_event_ref,omitempty"`
	ClassScheduleVersion         int64     `json:"class_schedule_version"`
	ClassScheduleCreatedAt       time.Time `json:"class_schedule_created_at"`
	ClassScheduleUpdatedAt       time.Time `json:"class_schedule_updated_at"`

	// turunan (read-only)
	Days        []string `json:"days"`
	StartMinute *int     `json:"start_minute,omitempty"`
	EndMinute   *int     `json:"end_minute,omitempty"`
}

func NewClassScheduleResponse(rec *m.ClassScheduleModel) ClassScheduleResponse {
	out := ClassScheduleResponse{
		ClassScheduleID:              rec.ClassScheduleID,
		ClassScheduleCourse:          rec.ClassScheduleCourse,
		ClassScheduleYearLevel:       rec.ClassScheduleYearLevel,
		ClassScheduleSection:         rec.ClassScheduleSection,
		ClassScheduleSubject:         rec.ClassScheduleSubject,
		ClassScheduleInstructorName:  rec.ClassScheduleInstructorName,
		ClassScheduleInstructorEmail: rec.ClassScheduleInstructorEmail,
		ClassScheduleDay:             rec.ClassScheduleDay,
		ClassScheduleTimeRange:       rec.ClassScheduleTimeRange,
		ClassScheduleRoom:            rec.ClassScheduleRoom,
		ClassScheduleIsArchived:      rec.ClassScheduleIsArchived,
		ClassScheduleExternalRef:     rec.ClassScheduleExternalEventRef,
		ClassScheduleVersion:         rec.ClassScheduleVersion,
		ClassScheduleCreatedAt:       rec.ClassScheduleCreatedAt,
		ClassScheduleUpdatedAt:       rec.ClassScheduleUpdatedAt,
		Days:                         rec.Days().Tokens(),
	}
	if r, ok := rec.Range(); ok {
		start, end := int(r.Start()), int(r.End())
		out.StartMinute, out.EndMinute = &start, &end
	}
	return out
}

func NewClassScheduleResponses(rows []m.ClassScheduleModel) []ClassScheduleResponse {
	out := make([]ClassScheduleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, NewClassScheduleResponse(&rows[i]))
	}
	return out
}

type ConflictResponse struct {
	Kind          service.ConflictKind  `json:"kind"`
	SharedDays    []string              `json:"shared_days"`
	ExistingRange string                `json:"existing_time_range"`
	Existing      ClassScheduleResponse `json:"existing"`
}

func NewConflictResponse(kind service.ConflictKind, existing *m.ClassScheduleModel, shared dbtime.DaySet, r dbtime.Range) ConflictResponse {
	return ConflictResponse{
		Kind:          kind,
		SharedDays:    shared.Tokens(),
		ExistingRange: r.String(),
		Existing:      NewClassScheduleResponse(existing),
	}
}

func NewConflictResponses(list []service.Conflict) []ConflictResponse {
	out := make([]ConflictResponse, 0, len(list))
	for i := range list {
		c := &list[i]
		out = append(out, NewConflictResponse(c.Kind, &c.Existing, c.SharedDays, c.ExistingRange))
	}
	return out
}

type MutationResponse struct {
	Schedule ClassScheduleResponse          `json:"schedule"`
	Changes  []m.FieldChange                `json:"changes"`
	Audit    m.ClassScheduleTransactionModel `json:"transaction"`
	Attempts int                            `json:"attempts"`
}

func NewMutationResponse(res *service.MutationResult) MutationResponse {
	changes := res.Changes
	if changes == nil {
		changes = []m.FieldChange{}
	}
	return MutationResponse{
		Schedule: NewClassScheduleResponse(res.Record),
		Changes:  changes,
		Audit:    res.Transaction,
		Attempts: res.Attempts,
	}
}

type BulkItemError struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type BulkItemResponse struct {
	Index    int                    `json:"index"`
	Success  bool                   `json:"success"`
	Schedule *ClassScheduleResponse `json:"schedule,omitempty"`
	Error    *BulkItemError         `json:"error,omitempty"`
}

type BulkResponse struct {
	Status      m.TransactionStatus            `json:"status"`
	Items       []BulkItemResponse             `json:"items"`
	Transaction m.ClassScheduleTransactionModel `json:"transaction"`
}

// NewBulkResponse: code per item diisi oleh controller (mapping error sama dengan endpoint tunggal).
func NewBulkResponse(res *service.BulkResult, describe func(error) BulkItemError) BulkResponse {
	out := BulkResponse{Status: res.Status, Transaction: res.Transaction, Items: make([]BulkItemResponse, 0, len(res.Items))}
	for _, it := range res.Items {
		item := BulkItemResponse{Index: it.Index, Success: it.Err == nil}
		if it.Record != nil {
			s := NewClassScheduleResponse(it.Record)
			item.Schedule = &s
		}
		if it.Err != nil {
			e := describe(it.Err)
			item.Error = &e
		}
		out.Items = append(out.Items, item)
	}
	return out
}

/* =========================================================
   3) AVAILABILITY
   ========================================================= */

type IntervalResponse struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	StartMinute     int    `json:"start_minute"`
	EndMinute       int    `json:"end_minute"`
	DurationMinutes int    `json:"duration_minutes"`
}

func NewIntervalResponses(list []dbtime.Interval) []IntervalResponse {
	out := make([]IntervalResponse, 0, len(list))
	for _, iv := range list {
		out = append(out, IntervalResponse{
			Start:           iv.Start.String(),
			End:             iv.End.String(),
			StartMinute:     int(iv.Start),
			EndMinute:       int(iv.End),
			DurationMinutes: int(iv.Duration()),
		})
	}
	return out
}

type AvailabilityResponse struct {
	Day       string             `json:"day"`
	Busy      []IntervalResponse `json:"busy"`
	Free      []IntervalResponse `json:"free"`
	Suggested []IntervalResponse `json:"suggested,omitempty"`
}

func NewAvailabilityResponse(a service.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		Day:  a.Day.Title(),
		Busy: NewIntervalResponses(a.Busy),
		Free: NewIntervalResponses(a.Free),
	}
}
