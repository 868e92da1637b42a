// file: internals/features/school/class_schedules/service/errors.go
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/helpers/dbtime"
)

var (
	ErrNotFound         = repo.ErrNotFound
	ErrVersionConflict  = repo.ErrVersionConflict
	ErrStoreUnavailable = repo.ErrStoreUnavailable

	// bentrok yang hilang/berubah di antara scan & konfirmasi ulang → ulangi seluruh unit kerja
	ErrTransientConflict = errors.New("class schedule conflict changed concurrently")
)

/* =========================
   ValidationError
   ========================= */

type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// orNil supaya `return v.orNil()` tidak menghasilkan interface non-nil berisi pointer nil.
func (e *ValidationError) orNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

/* =========================
   ConflictError
   ========================= */

type ConflictKind string

const (
	RoomConflict       ConflictKind = "room"
	InstructorConflict ConflictKind = "instructor"
)

// ConflictError: bentrok bisnis yang harus diselesaikan manual (tidak di-retry).
type ConflictError struct {
	Kind          ConflictKind
	Existing      m.ClassScheduleModel
	SharedDays    dbtime.DaySet
	ExistingRange dbtime.Range
}

func (e *ConflictError) Error() string {
	who := e.Existing.ClassScheduleRoom
	if e.Kind == InstructorConflict {
		who = e.Existing.ClassScheduleInstructorName
	}
	return fmt.Sprintf("%s conflict: %s already booked on %s %s (%s %s-%s %s)",
		e.Kind, who, e.SharedDays, e.ExistingRange,
		e.Existing.ClassScheduleCourse, e.Existing.ClassScheduleYearLevel,
		e.Existing.ClassScheduleSection, e.Existing.ClassScheduleSubject)
}

/* =========================
   Version / retry
   ========================= */

// VersionConflictError: versi eksplisit dari caller sudah basi.
type VersionConflictError struct {
	ID       uuid.UUID
	Expected int64
	Current  int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("class schedule %s: expected version %d, current version %d", e.ID, e.Expected, e.Current)
}

func (e *VersionConflictError) Unwrap() error { return ErrVersionConflict }

// RetryExhaustedError: semua percobaan gagal karena race.
// errors.Is(err, ErrVersionConflict) true kecuali penyebab terakhir adalah store down.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrVersionConflict && !errors.Is(e.Last, ErrStoreUnavailable)
}

// IsTransient: race / gangguan infrastruktur yang boleh di-retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrVersionConflict) ||
		errors.Is(err, ErrTransientConflict) ||
		errors.Is(err, ErrStoreUnavailable)
}
