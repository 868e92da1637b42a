// file: internals/features/school/class_schedules/repository/gorm_store.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
)

const (
	colID      = "class_schedule_id"
	colVersion = "class_schedule_version"
)

// GormStore: Store di atas Postgres. CAS = UPDATE/DELETE ... WHERE id = ? AND version = ?
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate tabel jadwal + audit + activity log (dipakai `jadwalctl migrate`).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&m.ClassScheduleModel{},
		&m.ClassScheduleTransactionModel{},
		&m.ClassScheduleActivityLogModel{},
	)
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*m.ClassScheduleModel, error) {
	var row m.ClassScheduleModel
	if err := s.db.WithContext(ctx).
		Where(colID+" = ?", id).
		Take(&row).Error; err != nil {
		return nil, classifyGormError(err)
	}
	return &row, nil
}

func (s *GormStore) FindMany(ctx context.Context, f Filter) ([]m.ClassScheduleModel, error) {
	q := s.db.WithContext(ctx).Model(&m.ClassScheduleModel{})
	if f.ActiveOnly {
		q = q.Where("class_schedule_is_archived = ?", false)
	}
	if f.ExcludeID != uuid.Nil {
		q = q.Where(colID+" <> ?", f.ExcludeID)
	}
	if group := s.attributeGroup(f); group != nil {
		q = q.Where(group)
	}

	var rows []m.ClassScheduleModel
	if err := q.Order("class_schedule_created_at ASC, class_schedule_id ASC").Find(&rows).Error; err != nil {
		return nil, classifyGormError(err)
	}

	// hari disimpan sebagai teks bebas ("Mon/Wed"), jadi disaring di Go dengan aturan yang sama
	out := rows[:0]
	for i := range rows {
		if f.Match(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// attributeGroup: (room = ? OR instructor = ? OR ...) dengan LOWER(TRIM()) seperti Filter.Match.
func (s *GormStore) attributeGroup(f Filter) *gorm.DB {
	var group *gorm.DB
	or := func(expr string, args ...any) {
		if group == nil {
			group = s.db.Where(expr, args...)
			return
		}
		group = group.Or(expr, args...)
	}
	if v := norm(f.Room); v != "" {
		or("LOWER(TRIM(class_schedule_room)) = ?", v)
	}
	if v := norm(f.Instructor); v != "" {
		or("LOWER(TRIM(class_schedule_instructor_name)) = ?", v)
		or("LOWER(TRIM(class_schedule_instructor_email)) = ?", v)
	}
	if v := norm(f.InstructorEmail); v != "" {
		or("LOWER(TRIM(class_schedule_instructor_email)) = ?", v)
	}
	if v := norm(f.Section); v != "" {
		or("LOWER(TRIM(class_schedule_section)) = ?", v)
	}
	if v := norm(f.Course); v != "" {
		or("LOWER(TRIM(class_schedule_course)) = ?", v)
	}
	if v := norm(f.YearLevel); v != "" {
		or("LOWER(TRIM(class_schedule_year_level)) = ?", v)
	}
	return group
}

func (s *GormStore) Insert(ctx context.Context, rec *m.ClassScheduleModel) error {
	if rec.ClassScheduleID == uuid.Nil {
		rec.ClassScheduleID = uuid.New()
	}
	now := time.Now().UTC()
	rec.ClassScheduleVersion = 0
	rec.ClassScheduleCreatedAt = now
	rec.ClassScheduleUpdatedAt = now

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return classifyGormError(err)
	}
	return nil
}

func (s *GormStore) CompareAndSwapUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate Mutator) (*m.ClassScheduleModel, error) {
	cur, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.ClassScheduleVersion != expectedVersion {
		return nil, ErrVersionConflict
	}

	next := cur.Clone()
	if mutate != nil {
		if err := mutate(next); err != nil {
			return nil, err
		}
	}

	var out m.ClassScheduleModel
	res := s.db.WithContext(ctx).
		Model(&out).
		Clauses(clause.Returning{}).
		Where(colID+" = ? AND "+colVersion+" = ?", id, expectedVersion).
		Updates(map[string]any{
			"class_schedule_course":             next.ClassScheduleCourse,
			"class_schedule_year_level":         next.ClassScheduleYearLevel,
			"class_schedule_section":            next.ClassScheduleSection,
			"class_schedule_subject":            next.ClassScheduleSubject,
			"class_schedule_instructor_name":    next.ClassScheduleInstructorName,
			"class_schedule_instructor_email":   next.ClassScheduleInstructorEmail,
			"class_schedule_day":                next.ClassScheduleDay,
			"class_schedule_time_range":         next.ClassScheduleTimeRange,
			"class_schedule_room":               next.ClassScheduleRoom,
			"class_schedule_is_archived":        next.ClassScheduleIsArchived,
			"class_schedule_external_event_ref": next.ClassScheduleExternalEventRef,
			colVersion:                          gorm.Expr(colVersion + " + 1"),
			"class_schedule_updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, classifyGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, s.missReason(ctx, id)
	}
	return &out, nil
}

func (s *GormStore) CompareAndSwapDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) (*m.ClassScheduleModel, error) {
	var out m.ClassScheduleModel
	res := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where(colID+" = ? AND "+colVersion+" = ?", id, expectedVersion).
		Delete(&out)
	if res.Error != nil {
		return nil, classifyGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, s.missReason(ctx, id)
	}
	return &out, nil
}

// missReason: 0 baris kena → id hilang (NotFound) atau versi sudah berubah (VersionConflict).
func (s *GormStore) missReason(ctx context.Context, id uuid.UUID) error {
	_, err := s.FindByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case err != nil:
		return err
	}
	return ErrVersionConflict
}
