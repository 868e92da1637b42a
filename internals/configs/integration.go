package configs

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// IntegrationFlags: integrasi eksternal apa saja yang aktif.
type IntegrationFlags struct {
	BroadcastEnabled    bool
	CalendarSyncEnabled bool
	ActivityLogEnabled  bool
}

// IntegrationSource membaca flag dari sumber aslinya (env, tabel setting, dsb).
type IntegrationSource func(ctx context.Context) (IntegrationFlags, error)

// IntegrationSettings meng-cache hasil IntegrationSource sampai Invalidate dipanggil.
// Di-inject ke notifier, tidak dibaca dari state global.
type IntegrationSettings struct {
	source IntegrationSource

	mu     sync.RWMutex
	cached *IntegrationFlags
}

func NewIntegrationSettings(source IntegrationSource) *IntegrationSettings {
	return &IntegrationSettings{source: source}
}

// StaticIntegrations dipakai test & CLI.
func StaticIntegrations(flags IntegrationFlags) *IntegrationSettings {
	return NewIntegrationSettings(func(context.Context) (IntegrationFlags, error) { return flags, nil })
}

// Get mengembalikan flag dari cache; kalau source gagal, semua integrasi dianggap mati
// dan hasilnya tidak di-cache.
func (s *IntegrationSettings) Get(ctx context.Context) IntegrationFlags {
	if s == nil || s.source == nil {
		return IntegrationFlags{}
	}
	s.mu.RLock()
	if s.cached != nil {
		f := *s.cached
		s.mu.RUnlock()
		return f
	}
	s.mu.RUnlock()

	flags, err := s.source(ctx)
	if err != nil {
		return IntegrationFlags{}
	}

	s.mu.Lock()
	s.cached = &flags
	s.mu.Unlock()
	return flags
}

func (s *IntegrationSettings) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// EnvIntegrationSource membaca ENV pada saat dipanggil (bukan saat init).
func EnvIntegrationSource() IntegrationSource {
	return func(context.Context) (IntegrationFlags, error) {
		return IntegrationFlags{
			BroadcastEnabled:    envBool("BROADCAST_ENABLED", GetEnv("REDIS_ADDR") != ""),
			CalendarSyncEnabled: envBool("CALENDAR_SYNC_ENABLED", false),
			ActivityLogEnabled:  envBool("ACTIVITY_LOG_ENABLED", true),
		}, nil
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(GetEnv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
