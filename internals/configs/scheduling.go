package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jadwalku_backend/internals/helpers/dbtime"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverBadger   = "badger"
)

/* =========================
   Policy config (yaml + env)
   ========================= */

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// WindowConfig memakai format jam yang sama dengan data jadwal ("7:00 AM").
type WindowConfig struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

type StoreConfig struct {
	Driver           string        `yaml:"driver"`
	BadgerPath       string        `yaml:"badger_path"`
	BadgerGCInterval time.Duration `yaml:"badger_gc_interval"`
}

type AuditConfig struct {
	// cron spec, misal "@every 30s"
	FlushSchedule string `yaml:"flush_schedule"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SchedulingConfig struct {
	Retry           RetryConfig   `yaml:"retry"`
	OperatingWindow WindowConfig  `yaml:"operating_window"`
	Store           StoreConfig   `yaml:"store"`
	Audit           AuditConfig   `yaml:"audit"`
	Redis           RedisConfig   `yaml:"redis"`
	Timezone        string        `yaml:"timezone"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		Retry:           RetryConfig{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond},
		OperatingWindow: WindowConfig{Open: "7:00 AM", Close: "9:00 PM"},
		Store:           StoreConfig{Driver: StoreDriverPostgres, BadgerPath: "./data/badger", BadgerGCInterval: 5 * time.Minute},
		Audit:           AuditConfig{FlushSchedule: "@every 30s"},
		Timezone:        dbtime.FallbackTimezone,
		DispatchTimeout: 10 * time.Second,
	}
}

// LoadSchedulingConfig: default → file yaml (SCHEDULING_CONFIG_FILE, opsional) → override ENV.
func LoadSchedulingConfig() (SchedulingConfig, error) {
	cfg := DefaultSchedulingConfig()

	if path := strings.TrimSpace(GetEnv("SCHEDULING_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read scheduling config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse scheduling config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *SchedulingConfig) {
	if v, err := strconv.Atoi(GetEnv("RETRY_MAX_ATTEMPTS")); err == nil {
		cfg.Retry.MaxAttempts = v
	}
	if v, err := strconv.Atoi(GetEnv("RETRY_BASE_DELAY_MS")); err == nil {
		cfg.Retry.BaseDelay = time.Duration(v) * time.Millisecond
	}
	if v := GetEnv("OPERATING_OPEN"); v != "" {
		cfg.OperatingWindow.Open = v
	}
	if v := GetEnv("OPERATING_CLOSE"); v != "" {
		cfg.OperatingWindow.Close = v
	}
	if v := GetEnv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := GetEnv("BADGER_PATH"); v != "" {
		cfg.Store.BadgerPath = v
	}
	if v := GetEnv("AUDIT_FLUSH_SCHEDULE"); v != "" {
		cfg.Audit.FlushSchedule = v
	}
	if v := GetEnv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := GetEnv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := GetEnv("INSTITUTION_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
}

func (c SchedulingConfig) Validate() error {
	var errs []error
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be >= 1"))
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("retry.base_delay must be >= 0"))
	}
	if _, err := c.Window(); err != nil {
		errs = append(errs, err)
	}
	switch c.Store.Driver {
	case StoreDriverPostgres:
	case StoreDriverBadger:
		if strings.TrimSpace(c.Store.BadgerPath) == "" {
			errs = append(errs, errors.New("store.badger_path is required for badger driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q tidak dikenal (postgres|badger)", c.Store.Driver))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

// Window mengubah jam operasional string → dbtime.Window.
func (c SchedulingConfig) Window() (dbtime.Window, error) {
	open, ok := dbtime.ParseClock(c.OperatingWindow.Open)
	if !ok {
		return dbtime.Window{}, fmt.Errorf("operating_window.open %q tidak valid", c.OperatingWindow.Open)
	}
	closeAt, ok := dbtime.ParseClock(c.OperatingWindow.Close)
	if !ok {
		return dbtime.Window{}, fmt.Errorf("operating_window.close %q tidak valid", c.OperatingWindow.Close)
	}
	w := dbtime.Window{Open: open, Close: closeAt}
	if !w.Valid() {
		return dbtime.Window{}, fmt.Errorf("operating_window %s - %s tidak valid", c.OperatingWindow.Open, c.OperatingWindow.Close)
	}
	return w, nil
}
