package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Riwayat untuk UI (beda dengan transaction log internal).
type ClassScheduleActivityLogModel struct {
	ClassScheduleActivityLogID         uuid.UUID      `gorm:"type:uuid;primaryKey;column:class_schedule_activity_log_id" json:"class_schedule_activity_log_id"`
	ClassScheduleActivityLogScheduleID uuid.UUID      `gorm:"type:uuid;index;column:class_schedule_activity_log_schedule_id" json:"class_schedule_activity_log_schedule_id"`
	ClassScheduleActivityLogActorID    string         `gorm:"type:varchar(64);column:class_schedule_activity_log_actor_id" json:"class_schedule_activity_log_actor_id"`
	ClassScheduleActivityLogAction     Action         `gorm:"type:varchar(16);not null;column:class_schedule_activity_log_action" json:"class_schedule_activity_log_action"`
	ClassScheduleActivityLogSummary    string         `gorm:"type:text;not null;column:class_schedule_activity_log_summary" json:"class_schedule_activity_log_summary"`
	ClassScheduleActivityLogMetadata   datatypes.JSON `gorm:"type:jsonb;column:class_schedule_activity_log_metadata" json:"class_schedule_activity_log_metadata,omitempty"`
	ClassScheduleActivityLogCreatedAt  time.Time      `gorm:"type:timestamptz;not null;default:now();column:class_schedule_activity_log_created_at" json:"class_schedule_activity_log_created_at"`
}

func (ClassScheduleActivityLogModel) TableName() string { return "class_schedule_activity_logs" }
