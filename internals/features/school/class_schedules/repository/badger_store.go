// file: internals/features/school/class_schedules/repository/badger_store.go
package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
)

const schedulePrefix = "class_schedule:"

func scheduleKey(id uuid.UUID) []byte { return []byte(schedulePrefix + id.String()) }

// BadgerStore: Store embedded. CAS memakai transaksi read-write badger:
// writer lain yang commit lebih dulu pada key yang sama → badger.ErrConflict → ErrVersionConflict.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

var _ Store = (*BadgerStore)(nil)

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func classifyBadgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return ErrVersionConflict
	case errors.Is(err, badger.ErrDBClosed), errors.Is(err, badger.ErrBlockedWrites):
		return Unavailable(err)
	}
	return err
}

func readSchedule(txn *badger.Txn, id uuid.UUID) (*m.ClassScheduleModel, error) {
	item, err := txn.Get(scheduleKey(id))
	if err != nil {
		return nil, err
	}
	var rec m.ClassScheduleModel
	if err := item.Value(func(val []byte) error {
		return sonic.Unmarshal(val, &rec)
	}); err != nil {
		return nil, err
	}
	return &rec, nil
}

func writeSchedule(txn *badger.Txn, rec *m.ClassScheduleModel) error {
	raw, err := sonic.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(scheduleKey(rec.ClassScheduleID), raw)
}

func (s *BadgerStore) FindByID(ctx context.Context, id uuid.UUID) (*m.ClassScheduleModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *m.ClassScheduleModel
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := readSchedule(txn, id)
		out = rec
		return err
	})
	if err != nil {
		return nil, classifyBadgerError(err)
	}
	return out, nil
}

func (s *BadgerStore) FindMany(ctx context.Context, f Filter) ([]m.ClassScheduleModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]m.ClassScheduleModel, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(schedulePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec m.ClassScheduleModel
			if err := it.Item().Value(func(val []byte) error {
				return sonic.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if f.Match(&rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classifyBadgerError(err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ClassScheduleCreatedAt.Equal(out[j].ClassScheduleCreatedAt) {
			return out[i].ClassScheduleCreatedAt.Before(out[j].ClassScheduleCreatedAt)
		}
		return out[i].ClassScheduleID.String() < out[j].ClassScheduleID.String()
	})
	return out, nil
}

func (s *BadgerStore) Insert(ctx context.Context, rec *m.ClassScheduleModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ClassScheduleID == uuid.Nil {
		rec.ClassScheduleID = uuid.New()
	}
	now := s.now()
	rec.ClassScheduleVersion = 0
	rec.ClassScheduleCreatedAt = now
	rec.ClassScheduleUpdatedAt = now

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(scheduleKey(rec.ClassScheduleID)); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return writeSchedule(txn, rec)
	})
	if errors.Is(err, badger.ErrConflict) {
		// id sama dibuat bersamaan
		return ErrAlreadyExists
	}
	return classifyBadgerError(err)
}

func (s *BadgerStore) CompareAndSwapUpdate(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate Mutator) (*m.ClassScheduleModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *m.ClassScheduleModel
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := readSchedule(txn, id)
		if err != nil {
			return err
		}
		if cur.ClassScheduleVersion != expectedVersion {
			return ErrVersionConflict
		}

		next := cur.Clone()
		if mutate != nil {
			if err := mutate(next); err != nil {
				return err
			}
		}
		next.ClassScheduleID = cur.ClassScheduleID
		next.ClassScheduleCreatedAt = cur.ClassScheduleCreatedAt
		next.ClassScheduleVersion = cur.ClassScheduleVersion + 1
		next.ClassScheduleUpdatedAt = s.now()

		if err := writeSchedule(txn, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, classifyBadgerError(err)
	}
	return out, nil
}

func (s *BadgerStore) CompareAndSwapDelete(ctx context.Context, id uuid.UUID, expectedVersion int64) (*m.ClassScheduleModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *m.ClassScheduleModel
	err := s.db.Update(func(txn *badger.Txn) error {
		cur, err := readSchedule(txn, id)
		if err != nil {
			return err
		}
		if cur.ClassScheduleVersion != expectedVersion {
			return ErrVersionConflict
		}
		out = cur
		return txn.Delete(scheduleKey(id))
	})
	if err != nil {
		return nil, classifyBadgerError(err)
	}
	return out, nil
}
