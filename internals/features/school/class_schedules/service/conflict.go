// file: internals/features/school/class_schedules/service/conflict.go
package service

import (
	"log/slog"

	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/helpers/dbtime"
)

// Proposal: penempatan yang sudah lolos validasi (hari & jam sudah ter-parse).
type Proposal struct {
	Room            string
	Days            dbtime.DaySet
	Range           dbtime.Range
	InstructorName  string
	InstructorEmail string
}

func proposalOf(rec *m.ClassScheduleModel) (Proposal, bool) {
	r, ok := rec.Range()
	days := rec.Days()
	if !ok || days.Empty() {
		return Proposal{}, false
	}
	return Proposal{
		Room:            rec.ClassScheduleRoom,
		Days:            days,
		Range:           r,
		InstructorName:  rec.ClassScheduleInstructorName,
		InstructorEmail: rec.InstructorEmail(),
	}, true
}

// candidateFilter: pra-saring di store (superset dari kandidat bentrok yang sebenarnya).
func (p Proposal) candidateFilter(excludeID uuid.UUID) repo.Filter {
	return repo.Filter{
		ActiveOnly:      true,
		Days:            p.Days,
		ExcludeID:       excludeID,
		Room:            p.Room,
		Instructor:      p.InstructorName,
		InstructorEmail: p.InstructorEmail,
	}
}

type Conflict struct {
	Kind          ConflictKind
	Existing      m.ClassScheduleModel
	SharedDays    dbtime.DaySet
	ExistingRange dbtime.Range
}

func (c *Conflict) asError() *ConflictError {
	return &ConflictError{Kind: c.Kind, Existing: c.Existing, SharedDays: c.SharedDays, ExistingRange: c.ExistingRange}
}

// ConflictDetector hanya membaca. Data lama yang tidak bisa di-parse dilewati & dicatat.
type ConflictDetector struct {
	log     *slog.Logger
	metrics *Metrics
}

func NewConflictDetector(log *slog.Logger, metrics *Metrics) *ConflictDetector {
	if log == nil {
		log = slog.Default()
	}
	return &ConflictDetector{log: log, metrics: metrics}
}

// FindConflict: kandidat pertama yang bentrok (urutan input), room dicek sebelum instruktur.
func (d *ConflictDetector) FindConflict(p Proposal, excludeID uuid.UUID, active []m.ClassScheduleModel) *Conflict {
	for i := range active {
		if c, ok := d.check(p, excludeID, &active[i]); ok {
			return &c
		}
	}
	return nil
}

// FindAllConflicts: semua kandidat yang bentrok (dry-run check & scan data).
func (d *ConflictDetector) FindAllConflicts(p Proposal, excludeID uuid.UUID, active []m.ClassScheduleModel) []Conflict {
	out := make([]Conflict, 0)
	for i := range active {
		if c, ok := d.check(p, excludeID, &active[i]); ok {
			out = append(out, c)
		}
	}
	return out
}

func (d *ConflictDetector) check(p Proposal, excludeID uuid.UUID, cand *m.ClassScheduleModel) (Conflict, bool) {
	if cand.ClassScheduleIsArchived {
		return Conflict{}, false
	}
	if excludeID != uuid.Nil && cand.ClassScheduleID == excludeID {
		return Conflict{}, false
	}

	shared := cand.Days().Intersect(p.Days)
	if shared.Empty() {
		return Conflict{}, false
	}

	candRange, ok := cand.Range()
	if !ok || !p.Range.Valid() {
		d.log.Warn("skip unparsable schedule in conflict check",
			slog.String("schedule_id", cand.ClassScheduleID.String()),
			slog.String("time_range", cand.ClassScheduleTimeRange),
		)
		d.metrics.skippedRecord()
		return Conflict{}, false
	}
	if !p.Range.Overlaps(candRange) {
		return Conflict{}, false
	}

	var kind ConflictKind
	switch {
	case repo.SameText(p.Room, cand.ClassScheduleRoom):
		kind = RoomConflict
	case repo.SameText(p.InstructorName, cand.ClassScheduleInstructorName),
		repo.SameText(p.InstructorEmail, cand.InstructorEmail()):
		kind = InstructorConflict
	default:
		return Conflict{}, false
	}

	return Conflict{
		Kind:          kind,
		Existing:      *cand.Clone(),
		SharedDays:    shared,
		ExistingRange: candRange,
	}, true
}
