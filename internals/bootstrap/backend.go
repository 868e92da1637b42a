// file: internals/bootstrap/backend.go
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"gorm.io/gorm"

	"jadwalku_backend/internals/configs"
	database "jadwalku_backend/internals/databases"
	repo "jadwalku_backend/internals/features/school/class_schedules/repository"
	"jadwalku_backend/internals/features/school/class_schedules/service"
)

// Backend: store jadwal + sink audit untuk driver yang dipilih (postgres | badger).
type Backend struct {
	Driver string
	Store  repo.Store
	Sink   repo.TransactionSink

	// salah satu terisi sesuai driver
	DB     *gorm.DB
	Badger *badger.DB
}

// OpenBackend. db boleh diisi dari luar (server memakai database.DB hasil ConnectDB).
func OpenBackend(cfg configs.SchedulingConfig, db *gorm.DB, log *slog.Logger) (*Backend, error) {
	switch cfg.Store.Driver {
	case configs.StoreDriverBadger:
		bdb, err := database.OpenBadger(database.BadgerConfig{
			Path:       cfg.Store.BadgerPath,
			SyncWrites: true,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver: cfg.Store.Driver,
			Store:  repo.NewBadgerStore(bdb),
			Sink:   repo.NewBadgerTransactionSink(bdb),
			Badger: bdb,
		}, nil

	case configs.StoreDriverPostgres:
		if db == nil {
			var err error
			if db, err = configs.InitMigrateDB(); err != nil {
				return nil, err
			}
		}
		return &Backend{
			Driver: cfg.Store.Driver,
			Store:  repo.NewGormStore(db),
			Sink:   repo.NewGormTransactionSink(db),
			DB:     db,
		}, nil
	}
	return nil, fmt.Errorf("store driver %q tidak dikenal", cfg.Store.Driver)
}

// Ping untuk /health.
func (b *Backend) Ping(ctx context.Context) error {
	if b.Badger != nil {
		if b.Badger.IsClosed() {
			return badger.ErrDBClosed
		}
		return nil
	}
	return database.Ping(ctx, b.DB)
}

func (b *Backend) Close() {
	if b.Badger != nil {
		_ = b.Badger.Close()
	}
	database.Close(b.DB)
}

// NewService merakit ScheduleService + TransactionLog dari config.
func (b *Backend) NewService(cfg configs.SchedulingConfig, log *slog.Logger, metrics *service.Metrics) (*service.ScheduleService, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	txlog := service.NewTransactionLog(b.Sink, log, metrics)
	return service.NewScheduleService(b.Store, txlog, service.Options{
		Policy: service.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
		},
		Window:  window,
		Logger:  log,
		Metrics: metrics,
	}), nil
}
