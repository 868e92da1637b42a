package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
)

type fakeSink struct {
	mu     sync.Mutex
	fail   error
	stored []m.ClassScheduleTransactionModel
}

func (s *fakeSink) AppendTransactions(_ context.Context, recs []m.ClassScheduleTransactionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.stored = append(s.stored, recs...)
	return nil
}

func (s *fakeSink) ListTransactions(_ context.Context, entityID uuid.UUID) ([]m.ClassScheduleTransactionModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []m.ClassScheduleTransactionModel
	for _, r := range s.stored {
		if r.ClassScheduleTransactionEntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestDetectChanges(t *testing.T) {
	prev := m.ScheduleSnapshot{Course: "BSIT", Day: "Monday", Time: "7:00 AM - 9:00 AM", Room: "R101", Instructor: "Ana Cruz"}
	next := prev
	next.Room = "R202"
	next.Time = "8:00 AM - 10:00 AM"
	next.Instructor = " Ana Cruz " // sama setelah trim

	changes := DetectChanges(prev, next)
	require.Len(t, changes, 2)
	assert.Equal(t, m.FieldChange{Field: "time", OldValue: "7:00 AM - 9:00 AM", NewValue: "8:00 AM - 10:00 AM"}, changes[0])
	assert.Equal(t, m.FieldChange{Field: "room", OldValue: "R101", NewValue: "R202"}, changes[1])

	assert.Empty(t, DetectChanges(prev, prev))
}

func TestSummarizeChanges(t *testing.T) {
	rec := existing("R101", "Monday", "7:00 AM - 9:00 AM", "Ana Cruz")
	assert.Contains(t, SummarizeChanges(m.ActionCreated, &rec, nil), "Created BSIT 1-A Programming 1 in R101")
	assert.Equal(t, "Archived BSIT 1-A Programming 1", SummarizeChanges(m.ActionArchived, &rec, nil))
	assert.Contains(t, SummarizeChanges(m.ActionUpdated, &rec,
		[]m.FieldChange{{Field: "room", OldValue: "R100", NewValue: "R101"}}), `room "R100" -> "R101"`)
}

func TestTransactionLogFlushAndList(t *testing.T) {
	sink := &fakeSink{}
	l := NewTransactionLog(sink, nil, nil)
	fixed := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	id := uuid.New()
	first := l.Record(TransactionEntry{ActorID: "u1", Kind: m.OperationCreate, Action: m.ActionCreated, EntityID: id, ResultingVersion: 0})
	second := l.Record(TransactionEntry{ActorID: "u1", Kind: m.OperationUpdate, Action: m.ActionUpdated, EntityID: id, ResultingVersion: 1,
		Changes: []m.FieldChange{{Field: "room", OldValue: "R101", NewValue: "R202"}}})
	l.Record(TransactionEntry{ActorID: "u2", Kind: m.OperationCreate, EntityID: uuid.New()})

	// jam sama → timestamp tetap naik
	assert.True(t, second.ClassScheduleTransactionTimestamp.After(first.ClassScheduleTransactionTimestamp))
	assert.Equal(t, m.TransactionSuccess, first.ClassScheduleTransactionStatus)
	assert.JSONEq(t, `[]`, string(first.ClassScheduleTransactionChangedFields))
	assert.Equal(t, 3, l.Pending())

	// belum di-flush pun sudah terlihat
	list, err := l.List(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, 0, l.Pending())
	assert.Len(t, sink.stored, 3)

	list, err = l.List(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ClassScheduleTransactionID, list[0].ClassScheduleTransactionID)
	assert.Equal(t, second.ClassScheduleTransactionID, list[1].ClassScheduleTransactionID)
}

func TestTransactionLogFlushFailureKeepsRecords(t *testing.T) {
	sink := &fakeSink{fail: errors.New("db down")}
	l := NewTransactionLog(sink, nil, nil)

	id := uuid.New()
	l.Record(TransactionEntry{ActorID: "u1", Kind: m.OperationCreate, EntityID: id})
	require.Error(t, l.Flush(context.Background()))
	assert.Equal(t, 1, l.Pending())

	l.Record(TransactionEntry{ActorID: "u1", Kind: m.OperationUpdate, EntityID: id, ResultingVersion: 1})
	sink.fail = nil
	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, 0, l.Pending())
	require.Len(t, sink.stored, 2)
	// urutan asli dipertahankan
	assert.Equal(t, m.OperationCreate, sink.stored[0].ClassScheduleTransactionKind)
}

func TestTransactionLogWithoutSink(t *testing.T) {
	l := NewTransactionLog(nil, nil, nil)
	id := uuid.New()
	l.Record(TransactionEntry{ActorID: "u1", Kind: m.OperationCreate, EntityID: id, Snapshot: map[string]string{"room": "R101"}})
	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, 0, l.Pending())

	list, err := l.List(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"room":"R101"}`, string(list[0].ClassScheduleTransactionPayload))
}
