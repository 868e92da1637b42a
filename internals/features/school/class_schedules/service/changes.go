package service

import (
	"fmt"
	"strings"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
)

var trackedFields = []struct {
	name string
	get  func(m.ScheduleSnapshot) string
}{
	{"course", func(s m.ScheduleSnapshot) string { return s.Course }},
	{"day", func(s m.ScheduleSnapshot) string { return s.Day }},
	{"time", func(s m.ScheduleSnapshot) string { return s.Time }},
	{"room", func(s m.ScheduleSnapshot) string { return s.Room }},
	{"instructor", func(s m.ScheduleSnapshot) string { return s.Instructor }},
	{"subject", func(s m.ScheduleSnapshot) string { return s.Subject }},
	{"section", func(s m.ScheduleSnapshot) string { return s.Section }},
	{"year", func(s m.ScheduleSnapshot) string { return s.Year }},
}

// DetectChanges: field yang berubah (setelah trim), urutan tetap.
func DetectChanges(prev, next m.ScheduleSnapshot) []m.FieldChange {
	out := make([]m.FieldChange, 0)
	for _, f := range trackedFields {
		ov := strings.TrimSpace(f.get(prev))
		nv := strings.TrimSpace(f.get(next))
		if ov == nv {
			continue
		}
		out = append(out, m.FieldChange{Field: f.name, OldValue: ov, NewValue: nv})
	}
	return out
}

// SummarizeChanges: teks ringkas untuk activity log.
func SummarizeChanges(action m.Action, rec *m.ClassScheduleModel, changes []m.FieldChange) string {
	label := fmt.Sprintf("%s %s-%s %s", rec.ClassScheduleCourse, rec.ClassScheduleYearLevel,
		rec.ClassScheduleSection, rec.ClassScheduleSubject)

	switch action {
	case m.ActionCreated:
		return fmt.Sprintf("Created %s in %s on %s %s (%s)", label, rec.ClassScheduleRoom,
			rec.ClassScheduleDay, rec.ClassScheduleTimeRange, rec.ClassScheduleInstructorName)
	case m.ActionArchived:
		return "Archived " + label
	case m.ActionRestored:
		return "Restored " + label
	case m.ActionDeleted:
		return "Deleted " + label
	}

	if len(changes) == 0 {
		return "Updated " + label + " (no schedule fields changed)"
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = fmt.Sprintf("%s %q -> %q", c.Field, c.OldValue, c.NewValue)
	}
	return "Updated " + label + ": " + strings.Join(parts, "; ")
}
