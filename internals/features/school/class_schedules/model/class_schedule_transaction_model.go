// file: internals/features/school/class_schedules/model/class_schedule_transaction_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
	OperationBulk   OperationKind = "bulk"
)

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionPartial TransactionStatus = "partial"
	TransactionFailed  TransactionStatus = "failed"
)

// Action lebih rinci dari OperationKind (archive/restore tetap kind=update).
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionArchived Action = "archived"
	ActionRestored Action = "restored"
	ActionDeleted  Action = "deleted"
)

type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// ClassScheduleTransactionModel: entri audit append-only, tidak pernah di-update/hapus.
type ClassScheduleTransactionModel struct {
	ClassScheduleTransactionID               uuid.UUID         `gorm:"type:uuid;primaryKey;column:class_schedule_transaction_id" json:"class_schedule_transaction_id"`
	ClassScheduleTransactionActorID          string            `gorm:"type:varchar(64);not null;column:class_schedule_transaction_actor_id" json:"class_schedule_transaction_actor_id"`
	ClassScheduleTransactionKind             OperationKind     `gorm:"type:varchar(16);not null;column:class_schedule_transaction_kind" json:"class_schedule_transaction_kind"`
	ClassScheduleTransactionAction           Action            `gorm:"type:varchar(16);column:class_schedule_transaction_action" json:"class_schedule_transaction_action,omitempty"`
	ClassScheduleTransactionEntityID         uuid.UUID         `gorm:"type:uuid;index;column:class_schedule_transaction_entity_id" json:"class_schedule_transaction_entity_id"`
	ClassScheduleTransactionResultingVersion int64             `gorm:"not null;column:class_schedule_transaction_resulting_version" json:"class_schedule_transaction_resulting_version"`
	ClassScheduleTransactionPayload          datatypes.JSON    `gorm:"type:jsonb;column:class_schedule_transaction_payload" json:"class_schedule_transaction_payload,omitempty"`
	ClassScheduleTransactionChangedFields    datatypes.JSON    `gorm:"type:jsonb;column:class_schedule_transaction_changed_fields" json:"class_schedule_transaction_changed_fields,omitempty"`
	ClassScheduleTransactionStatus           TransactionStatus `gorm:"type:varchar(16);not null;column:class_schedule_transaction_status" json:"class_schedule_transaction_status"`
	ClassScheduleTransactionTimestamp        time.Time         `gorm:"type:timestamptz;not null;index;column:class_schedule_transaction_timestamp" json:"class_schedule_transaction_timestamp"`
}

func (ClassScheduleTransactionModel) TableName() string { return "class_schedule_transactions" }
