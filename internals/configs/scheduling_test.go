package configs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jadwalku_backend/internals/helpers/dbtime"
)

func TestLoadSchedulingConfigDefaults(t *testing.T) {
	t.Setenv("SCHEDULING_CONFIG_FILE", "")
	t.Setenv("INSTITUTION_TIMEZONE", "UTC")

	cfg, err := LoadSchedulingConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)

	w, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, dbtime.DefaultWindow(), w)
}

func TestLoadSchedulingConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduling.yaml")
	body := `
retry:
  max_attempts: 5
  base_delay: 250ms
operating_window:
  open: "8:00 AM"
  close: "6:00 PM"
store:
  driver: badger
  badger_path: /tmp/jadwal
timezone: UTC
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("SCHEDULING_CONFIG_FILE", path)
	t.Setenv("RETRY_MAX_ATTEMPTS", "4")
	t.Setenv("INSTITUTION_TIMEZONE", "")

	cfg, err := LoadSchedulingConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts) // env menang
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, StoreDriverBadger, cfg.Store.Driver)

	w, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, dbtime.Window{Open: 480, Close: 1080}, w)
}

func TestSchedulingConfigValidate(t *testing.T) {
	cfg := DefaultSchedulingConfig()
	cfg.Timezone = "UTC"
	cfg.Retry.MaxAttempts = 0
	cfg.OperatingWindow.Close = "6:00 AM"
	cfg.Store.Driver = "mongo"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts")
	assert.Contains(t, err.Error(), "operating_window")
	assert.Contains(t, err.Error(), "mongo")
}

func TestIntegrationSettingsCacheAndInvalidate(t *testing.T) {
	calls := 0
	enabled := false
	s := NewIntegrationSettings(func(context.Context) (IntegrationFlags, error) {
		calls++
		return IntegrationFlags{CalendarSyncEnabled: enabled}, nil
	})
	ctx := context.Background()

	assert.False(t, s.Get(ctx).CalendarSyncEnabled)
	enabled = true
	assert.False(t, s.Get(ctx).CalendarSyncEnabled, "masih dari cache")
	assert.Equal(t, 1, calls)

	s.Invalidate()
	assert.True(t, s.Get(ctx).CalendarSyncEnabled)
	assert.Equal(t, 2, calls)
}

func TestIntegrationSettingsNil(t *testing.T) {
	var s *IntegrationSettings
	assert.Equal(t, IntegrationFlags{}, s.Get(context.Background()))
	s.Invalidate()
}
