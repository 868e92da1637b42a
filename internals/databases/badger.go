package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig: opsi penyimpanan embedded (STORE_DRIVER=badger) dan untuk test.
type BadgerConfig struct {
	// Path wajib kecuali InMemory
	Path       string
	InMemory   bool
	SyncWrites bool
	// nil = log internal badger dimatikan
	Logger *slog.Logger
}

func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger: adapter slog → badger.Logger
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func OpenBadger(cfg BadgerConfig) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.With(slog.String("component", "badger"))})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

func OpenBadgerInMemory() (*badger.DB, error) {
	return OpenBadger(InMemoryBadgerConfig())
}

// RunBadgerGC dipanggil job cron. ErrNoRewrite = tidak ada yang perlu di-GC.
func RunBadgerGC(db *badger.DB, ratio float64, logger *slog.Logger) {
	if db == nil || db.IsClosed() {
		return
	}
	err := db.RunValueLogGC(ratio)
	switch {
	case err == nil:
		logger.Debug("badger value log GC completed")
	case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected), errors.Is(err, badger.ErrGCInMemoryMode):
	default:
		logger.Warn("badger value log GC error", slog.String("error", err.Error()))
	}
}
