// file: internals/features/school/class_schedules/repository/store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/helpers/dbtime"
)

var (
	ErrNotFound         = errors.New("class schedule not found")
	ErrVersionConflict  = errors.New("class schedule version conflict")
	ErrStoreUnavailable = errors.New("class schedule store unavailable")
	ErrAlreadyExists    = errors.New("class schedule already exists")
)

// Unavailable membungkus error infrastruktur supaya errors.Is(err, ErrStoreUnavailable) true
// tanpa kehilangan penyebab aslinya.
func Unavailable(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
}

// Mutator mengubah salinan record. Error dari mutator membatalkan write (tanpa bump versi).
// ID, Version, CreatedAt diatur oleh store, perubahan mutator pada field tsb diabaikan.
type Mutator func(rec *m.ClassScheduleModel) error

// Store: adapter entitas ber-versi. CAS update/delete mengenai tepat 0 atau 1 record.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*m.ClassScheduleModel, error)
	FindMany(ctx context.Context, f Filter) ([]m.ClassScheduleModel, error)
	Insert(ctx context.Context, rec *m.ClassScheduleModel) error
	CompareAndSwapUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate Mutator) (*m.ClassScheduleModel, error)
	CompareAndSwapDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) (*m.ClassScheduleModel, error)
}

/* =========================
   Filter
   ========================= */

// Filter dipakai bersama oleh conflict pre-scan, availability & list.
// Filter atribut (Room..YearLevel) digabung OR: cocok kalau salah satu cocok.
type Filter struct {
	ActiveOnly bool
	Days       dbtime.DaySet // kosong = semua hari
	ExcludeID  uuid.UUID

	Room            string
	Instructor      string // nama ATAU email
	InstructorEmail string
	Section         string
	Course          string
	YearLevel       string
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// SameText: perbandingan ter-trim & case-insensitive; string kosong tidak pernah sama.
func SameText(a, b string) bool {
	a, b = norm(a), norm(b)
	return a != "" && a == b
}

func (f Filter) HasAttributes() bool {
	return norm(f.Room) != "" || norm(f.Instructor) != "" || norm(f.InstructorEmail) != "" ||
		norm(f.Section) != "" || norm(f.Course) != "" || norm(f.YearLevel) != ""
}

func (f Filter) Match(rec *m.ClassScheduleModel) bool {
	if rec == nil {
		return false
	}
	if f.ActiveOnly && rec.ClassScheduleIsArchived {
		return false
	}
	if f.ExcludeID != uuid.Nil && rec.ClassScheduleID == f.ExcludeID {
		return false
	}
	if !f.Days.Empty() && !rec.Days().Intersects(f.Days) {
		return false
	}
	if !f.HasAttributes() {
		return true
	}
	return f.matchAttributes(rec)
}

func (f Filter) matchAttributes(rec *m.ClassScheduleModel) bool {
	switch {
	case SameText(f.Room, rec.ClassScheduleRoom):
		return true
	case SameText(f.Instructor, rec.ClassScheduleInstructorName),
		SameText(f.Instructor, rec.InstructorEmail()):
		return true
	case SameText(f.InstructorEmail, rec.InstructorEmail()):
		return true
	case SameText(f.Section, rec.ClassScheduleSection):
		return true
	case SameText(f.Course, rec.ClassScheduleCourse):
		return true
	case SameText(f.YearLevel, rec.ClassScheduleYearLevel):
		return true
	}
	return false
}
