// file: internals/features/school/class_schedules/service/transaction_log.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
)

// TransactionEntry: input Record. Snapshot di-serialize apa adanya ke payload.
type TransactionEntry struct {
	ActorID          string
	Kind             m.OperationKind
	Action           m.Action
	EntityID         uuid.UUID
	ResultingVersion int64
	Snapshot         any
	Changes          []m.FieldChange
	Status           m.TransactionStatus
}

// TransactionLog: append-only, buffer di memori lalu di-flush ke sink.
// Tidak ada API update/delete.
type TransactionLog struct {
	sink    repo.TransactionSink
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time

	mu       sync.Mutex
	buf      []m.ClassScheduleTransactionModel
	inflight []m.ClassScheduleTransactionModel
	// sink nil → record yang "di-flush" tetap di sini
	persisted []m.ClassScheduleTransactionModel
	lastTS    time.Time
}

func NewTransactionLog(sink repo.TransactionSink, log *slog.Logger, metrics *Metrics) *TransactionLog {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionLog{
		sink:    sink,
		log:     log,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (l *TransactionLog) Record(e TransactionEntry) m.ClassScheduleTransactionModel {
	status := e.Status
	if status == "" {
		status = m.TransactionSuccess
	}

	rec := m.ClassScheduleTransactionModel{
		ClassScheduleTransactionID:               uuid.New(),
		ClassScheduleTransactionActorID:          e.ActorID,
		ClassScheduleTransactionKind:             e.Kind,
		ClassScheduleTransactionAction:           e.Action,
		ClassScheduleTransactionEntityID:         e.EntityID,
		ClassScheduleTransactionResultingVersion: e.ResultingVersion,
		ClassScheduleTransactionStatus:           status,
	}
	if e.Snapshot != nil {
		if raw, err := sonic.Marshal(e.Snapshot); err == nil {
			rec.ClassScheduleTransactionPayload = datatypes.JSON(raw)
		} else {
			l.log.Error("marshal transaction payload", slog.String("entity_id", e.EntityID.String()), slog.Any("error", err))
		}
	}
	changes := e.Changes
	if changes == nil {
		changes = []m.FieldChange{}
	}
	if raw, err := sonic.Marshal(changes); err == nil {
		rec.ClassScheduleTransactionChangedFields = datatypes.JSON(raw)
	}

	l.mu.Lock()
	// timestamp monoton supaya urutan per entity stabil walau jam kasar
	ts := l.now()
	if !ts.After(l.lastTS) {
		ts = l.lastTS.Add(time.Microsecond)
	}
	l.lastTS = ts
	rec.ClassScheduleTransactionTimestamp = ts
	l.buf = append(l.buf, rec)
	n := len(l.buf)
	l.mu.Unlock()

	l.metrics.pending(n)
	return rec
}

// Pending: jumlah record yang belum tersimpan permanen.
func (l *TransactionLog) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buf) + len(l.inflight)
}

// Flush memindahkan buffer ke sink. Gagal → record kembali ke depan buffer.
func (l *TransactionLog) Flush(ctx context.Context) error {
	l.mu.Lock()
	if len(l.buf) == 0 || len(l.inflight) > 0 {
		l.mu.Unlock()
		return nil
	}
	batch := l.buf
	l.buf = nil
	l.inflight = batch
	l.mu.Unlock()

	var err error
	if l.sink != nil {
		err = l.sink.AppendTransactions(ctx, batch)
	}

	l.mu.Lock()
	l.inflight = nil
	if err != nil {
		l.buf = append(batch, l.buf...)
	} else if l.sink == nil {
		l.persisted = append(l.persisted, batch...)
	}
	n := len(l.buf)
	l.mu.Unlock()

	l.metrics.pending(n)
	if err != nil {
		l.metrics.flushFailed()
		l.log.Warn("transaction log flush failed", slog.Int("records", len(batch)), slog.Any("error", err))
		return fmt.Errorf("flush transaction log: %w", err)
	}
	l.log.Debug("transaction log flushed", slog.Int("records", len(batch)))
	return nil
}

// List: riwayat satu entity (tersimpan + masih di buffer), urut timestamp.
func (l *TransactionLog) List(ctx context.Context, entityID uuid.UUID) ([]m.ClassScheduleTransactionModel, error) {
	var stored []m.ClassScheduleTransactionModel
	if l.sink != nil {
		var err error
		stored, err = l.sink.ListTransactions(ctx, entityID)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[uuid.UUID]struct{}, len(stored))
	out := make([]m.ClassScheduleTransactionModel, 0, len(stored))
	add := func(list []m.ClassScheduleTransactionModel) {
		for _, r := range list {
			if r.ClassScheduleTransactionEntityID != entityID {
				continue
			}
			if _, dup := seen[r.ClassScheduleTransactionID]; dup {
				continue
			}
			seen[r.ClassScheduleTransactionID] = struct{}{}
			out = append(out, r)
		}
	}
	add(stored)

	l.mu.Lock()
	add(l.persisted)
	add(l.inflight)
	add(l.buf)
	l.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClassScheduleTransactionTimestamp.Before(out[j].ClassScheduleTransactionTimestamp)
	})
	return out, nil
}
