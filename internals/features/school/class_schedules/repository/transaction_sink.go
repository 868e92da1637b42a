// file: internals/features/school/class_schedules/repository/transaction_sink.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	m "jadwalku_backend/internals/features/school/class_schedules/model"
)

// TransactionSink: penyimpanan permanen audit log. Append harus idempotent per ID
// (flush yang gagal di tengah boleh diulang).
type TransactionSink interface {
	AppendTransactions(ctx context.Context, recs []m.ClassScheduleTransactionModel) error
	ListTransactions(ctx context.Context, entityID uuid.UUID) ([]m.ClassScheduleTransactionModel, error)
}

/* =========================
   Postgres
   ========================= */

type GormTransactionSink struct {
	db *gorm.DB
}

var _ TransactionSink = (*GormTransactionSink)(nil)

func NewGormTransactionSink(db *gorm.DB) *GormTransactionSink {
	return &GormTransactionSink{db: db}
}

func (s *GormTransactionSink) AppendTransactions(ctx context.Context, recs []m.ClassScheduleTransactionModel) error {
	if len(recs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&recs, 100).Error
	return classifyGormError(err)
}

func (s *GormTransactionSink) ListTransactions(ctx context.Context, entityID uuid.UUID) ([]m.ClassScheduleTransactionModel, error) {
	var rows []m.ClassScheduleTransactionModel
	err := s.db.WithContext(ctx).
		Where("class_schedule_transaction_entity_id = ?", entityID).
		Order("class_schedule_transaction_timestamp ASC, class_schedule_transaction_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, classifyGormError(err)
	}
	return rows, nil
}

/* =========================
   Badger
   ========================= */

const transactionPrefix = "class_schedule_tx:"

// key: class_schedule_tx:<entity>:<unix nano 20 digit>:<tx id> → urut waktu per entity
func transactionKey(rec *m.ClassScheduleTransactionModel) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s",
		transactionPrefix,
		rec.ClassScheduleTransactionEntityID,
		rec.ClassScheduleTransactionTimestamp.UnixNano(),
		rec.ClassScheduleTransactionID,
	))
}

type BadgerTransactionSink struct {
	db *badger.DB
}

var _ TransactionSink = (*BadgerTransactionSink)(nil)

func NewBadgerTransactionSink(db *badger.DB) *BadgerTransactionSink {
	return &BadgerTransactionSink{db: db}
}

func (s *BadgerTransactionSink) AppendTransactions(ctx context.Context, recs []m.ClassScheduleTransactionModel) error {
	const chunk = 100
	for start := 0; start < len(recs); start += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+chunk, len(recs))
		err := s.db.Update(func(txn *badger.Txn) error {
			for i := start; i < end; i++ {
				key := transactionKey(&recs[i])
				if _, err := txn.Get(key); err == nil {
					continue // sudah tersimpan (write-once)
				} else if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
				raw, err := sonic.Marshal(&recs[i])
				if err != nil {
					return err
				}
				if err := txn.Set(key, raw); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return classifyBadgerError(err)
		}
	}
	return nil
}

func (s *BadgerTransactionSink) ListTransactions(ctx context.Context, entityID uuid.UUID) ([]m.ClassScheduleTransactionModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(transactionPrefix + entityID.String() + ":")
	out := make([]m.ClassScheduleTransactionModel, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec m.ClassScheduleTransactionModel
			if err := it.Item().Value(func(val []byte) error {
				return sonic.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, classifyBadgerError(err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClassScheduleTransactionTimestamp.Before(out[j].ClassScheduleTransactionTimestamp)
	})
	return out, nil
}
