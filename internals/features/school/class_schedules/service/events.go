package service

import (
	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
)

// EventKind: efek samping pasca-commit. Mutasi hanya MENGEMBALIKAN event,
// pengiriman dilakukan notifier.Dispatcher di layer controller.
type EventKind string

const (
	EventBroadcast    EventKind = "broadcast"
	EventCalendarSync EventKind = "calendar_sync"
	EventActivityLog  EventKind = "activity_log"
)

type Event struct {
	Kind     EventKind
	Action   m.Action
	EntityID uuid.UUID
	ActorID  string
	// state setelah mutasi (untuk delete: state terakhir sebelum dihapus)
	Record  m.ClassScheduleModel
	Summary string
	Changes []m.FieldChange
}

func postCommitEvents(actorID string, action m.Action, rec *m.ClassScheduleModel, changes []m.FieldChange) []Event {
	base := Event{
		Action:   action,
		EntityID: rec.ClassScheduleID,
		ActorID:  actorID,
		Record:   *rec.Clone(),
		Summary:  SummarizeChanges(action, rec, changes),
		Changes:  changes,
	}
	kinds := []EventKind{EventBroadcast, EventCalendarSync, EventActivityLog}
	out := make([]Event, 0, len(kinds))
	for _, k := range kinds {
		e := base
		e.Kind = k
		out = append(out, e)
	}
	return out
}
