// file: internals/features/school/class_schedules/scheduler/maintenance.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"

	"jadwalku_backend/internals/configs"
	database "jadwalku_backend/internals/databases"
	"jadwalku_backend/internals/features/school/class_schedules/service"
)

const badgerGCRatio = 0.5

// FlushAuditOnce: satu putaran flush buffer audit (dipakai cron & shutdown).
func FlushAuditOnce(ctx context.Context, txlog *service.TransactionLog, log *slog.Logger) {
	pending := txlog.Pending()
	if pending == 0 {
		return
	}
	if err := txlog.Flush(ctx); err != nil {
		log.Warn("audit flush failed", slog.Int("pending", pending), slog.Any("error", err))
		return
	}
	log.Debug("audit flushed", slog.Int("count", pending))
}

// StartMaintenance mendaftarkan job periodik: flush audit + GC value log badger (kalau dipakai).
// Caller wajib Stop() saat shutdown.
func StartMaintenance(cfg configs.SchedulingConfig, txlog *service.TransactionLog, bdb *badger.DB, log *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := c.AddFunc(cfg.Audit.FlushSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		FlushAuditOnce(ctx, txlog, log)
	}); err != nil {
		return nil, fmt.Errorf("audit flush schedule %q: %w", cfg.Audit.FlushSchedule, err)
	}

	if bdb != nil && cfg.Store.BadgerGCInterval > 0 {
		spec := "@every " + cfg.Store.BadgerGCInterval.String()
		if _, err := c.AddFunc(spec, func() {
			database.RunBadgerGC(bdb, badgerGCRatio, log)
		}); err != nil {
			return nil, fmt.Errorf("badger gc schedule %q: %w", spec, err)
		}
	}

	log.Info("maintenance jobs started",
		slog.String("audit_flush", cfg.Audit.FlushSchedule),
		slog.Bool("badger_gc", bdb != nil),
	)
	c.Start()
	return c, nil
}
