package notifier

import (
	"context"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	"jadwalku_backend/internals/features/school/class_schedules/service"
)

// ActivityLogger menulis riwayat yang dibaca UI. Tanpa DB (mode badger) → cukup slog.
type ActivityLogger struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewActivityLogger(db *gorm.DB, log *slog.Logger) *ActivityLogger {
	if log == nil {
		log = slog.Default()
	}
	return &ActivityLogger{db: db, log: log}
}

func (a *ActivityLogger) Log(ctx context.Context, e service.Event) error {
	if a.db == nil {
		a.log.Info("class schedule activity",
			slog.String("schedule_id", e.EntityID.String()),
			slog.String("actor_id", e.ActorID),
			slog.String("action", string(e.Action)),
			slog.String("summary", e.Summary),
		)
		return nil
	}

	changes := e.Changes
	if changes == nil {
		changes = []m.FieldChange{}
	}
	meta, err := sonic.Marshal(map[string]any{
		"version": e.Record.ClassScheduleVersion,
		"changes": changes,
	})
	if err != nil {
		return err
	}

	row := m.ClassScheduleActivityLogModel{
		ClassScheduleActivityLogID:         uuid.New(),
		ClassScheduleActivityLogScheduleID: e.EntityID,
		ClassScheduleActivityLogActorID:    e.ActorID,
		ClassScheduleActivityLogAction:     e.Action,
		ClassScheduleActivityLogSummary:    e.Summary,
		ClassScheduleActivityLogMetadata:   datatypes.JSON(meta),
	}
	return a.db.WithContext(ctx).Create(&row).Error
}
