package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/features/school/class_schedules/service"
)

// CalendarClient: kalender eksternal (Google Calendar dsb). Provider asli di luar repo ini.
type CalendarClient interface {
	UpsertEvent(ctx context.Context, rec m.ClassScheduleModel) (ref string, err error)
	DeleteEvent(ctx context.Context, ref string) error
}

// RefWriter menyimpan balik referensi event. Dipenuhi oleh *service.ScheduleService.
type RefWriter interface {
	AttachExternalRef(ctx context.Context, id uuid.UUID, ref string) error
}

// LogCalendarClient hanya mencatat; ref deterministik dari id jadwal.
type LogCalendarClient struct {
	log *slog.Logger
}

func NewLogCalendarClient(log *slog.Logger) *LogCalendarClient {
	if log == nil {
		log = slog.Default()
	}
	return &LogCalendarClient{log: log}
}

func (c *LogCalendarClient) UpsertEvent(_ context.Context, rec m.ClassScheduleModel) (string, error) {
	ref := fmt.Sprintf("local-%s", rec.ClassScheduleID)
	c.log.Info("calendar upsert (log only)",
		slog.String("ref", ref),
		slog.String("day", rec.ClassScheduleDay),
		slog.String("time_range", rec.ClassScheduleTimeRange),
		slog.String("room", rec.ClassScheduleRoom),
	)
	return ref, nil
}

func (c *LogCalendarClient) DeleteEvent(_ context.Context, ref string) error {
	c.log.Info("calendar delete (log only)", slog.String("ref", ref))
	return nil
}

type CalendarSync struct {
	client CalendarClient
	refs   RefWriter
	log    *slog.Logger
}

func NewCalendarSync(client CalendarClient, refs RefWriter, log *slog.Logger) *CalendarSync {
	if log == nil {
		log = slog.Default()
	}
	return &CalendarSync{client: client, refs: refs, log: log}
}

func (s *CalendarSync) Sync(ctx context.Context, e service.Event) error {
	rec := e.Record
	current := ""
	if rec.ClassScheduleExternalEventRef != nil {
		current = *rec.ClassScheduleExternalEventRef
	}

	switch e.Action {
	case m.ActionDeleted:
		if current == "" {
			return nil
		}
		return s.client.DeleteEvent(ctx, current)

	case m.ActionArchived:
		if current == "" {
			return nil
		}
		if err := s.client.DeleteEvent(ctx, current); err != nil {
			return err
		}
		return s.writeBack(ctx, e.EntityID, "")
	}

	ref, err := s.client.UpsertEvent(ctx, rec)
	if err != nil {
		return err
	}
	if ref == current {
		return nil
	}
	return s.writeBack(ctx, e.EntityID, ref)
}

func (s *CalendarSync) writeBack(ctx context.Context, id uuid.UUID, ref string) error {
	if s.refs == nil {
		return nil
	}
	if err := s.refs.AttachExternalRef(ctx, id, ref); err != nil {
		return fmt.Errorf("simpan external ref %s: %w", id, err)
	}
	return nil
}
