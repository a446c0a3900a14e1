package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), m.Get())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "micro_pause:")
	assert.Contains(t, string(data), "reset_pred: day/4:00")
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "breaks:\n  rest_break:\n    enabled: false\n    limit_seconds: 3000\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.False(t, cfg.Breaks.RestBreak.Enabled)
	assert.Equal(t, int64(3000), cfg.Breaks.RestBreak.LimitSeconds)
	assert.Equal(t, int64(600), cfg.Breaks.RestBreak.AutoResetSeconds)
	assert.Equal(t, int64(180), cfg.Breaks.MicroPause.LimitSeconds)
	assert.Equal(t, 250, cfg.Monitor.PollIntervalMs)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("breaks:\n  micro_pause:\n    max_preludes: -5\n"), 0o644))

	_, err := NewManager(path)
	assert.ErrorIs(t, err, ErrInvalidMaxPreludes)
}

func TestSetValuePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	var got []*Config
	sub := m.OnChange(func(c *Config) { got = append(got, c) })
	defer sub.Cancel()

	require.NoError(t, m.SetValue("breaks.micro_pause.max_preludes", "-1"))
	require.NoError(t, m.SetValue("general.operation_mode", "quiet"))
	assert.Len(t, got, 2)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, -1, reloaded.Get().Breaks.MicroPause.MaxPreludes)
	assert.Equal(t, "quiet", reloaded.Get().General.OperationMode)

	v, err := reloaded.Value("breaks.micro_pause.max_preludes")
	require.NoError(t, err)
	assert.Equal(t, "-1", v)
}

func TestSetValueErrors(t *testing.T) {
	m := NewMemoryManager(nil)

	tests := []struct {
		key, value string
		want       error
	}{
		{"breaks.coffee.enabled", "true", ErrUnknownKey},
		{"breaks.micro_pause.colour", "red", ErrUnknownKey},
		{"general", "x", ErrUnknownKey},
		{"breaks.micro_pause.enabled", "maybe", ErrInvalidValue},
		{"breaks.rest_break.limit_seconds", "-1", ErrInvalidDuration},
		{"general.operation_mode", "asleep", ErrInvalidMode},
		{"general.insist_policy", "nag", ErrInvalidInsistPolicy},
		{"breaks.daily_limit.reset_pred", "week/1:00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := m.SetValue(tt.key, tt.value)
			if tt.want == nil {
				assert.Error(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, DefaultConfig(), m.Get(), "failed updates leave the config untouched")
}

func TestMemoryManagerNeverWrites(t *testing.T) {
	m := NewMemoryManager(nil)
	require.NoError(t, m.SetValue("general.usage_mode", "reading"))
	assert.Equal(t, "reading", m.Get().General.UsageMode)
	assert.Empty(t, m.Path())
	assert.Empty(t, m.StateDir())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORKRAVE_STATE_DIR", "/var/lib/workrave")
	t.Setenv("WORKRAVE_INSIST_POLICY", "ignore")
	t.Setenv("WORKRAVE_USAGE_MODE", "browsing")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, "/var/lib/workrave", cfg.General.StateDir)
	assert.Equal(t, "ignore", cfg.General.InsistPolicy)
	assert.Equal(t, "normal", cfg.General.UsageMode, "invalid values are ignored")
}

func TestEnvOverridesAreNotSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("WORKRAVE_STATE_DIR", "/tmp/env-only-dir")
	t.Setenv("WORKRAVE_INSIST_POLICY", "ignore")

	m, err := NewManager(path)
	require.NoError(t, err)
	m.ApplyEnv()

	assert.Equal(t, "/tmp/env-only-dir", m.StateDir())
	assert.Equal(t, "ignore", m.Get().General.InsistPolicy)

	require.NoError(t, m.SetValue("general.usage_mode", "reading"))
	assert.Equal(t, "/tmp/env-only-dir", m.StateDir(), "overrides survive unrelated updates")

	t.Setenv("WORKRAVE_STATE_DIR", "")
	t.Setenv("WORKRAVE_INSIST_POLICY", "")

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	reloaded.ApplyEnv()

	assert.Empty(t, reloaded.Get().General.StateDir)
	assert.Equal(t, "halt", reloaded.Get().General.InsistPolicy)
	assert.Equal(t, "reading", reloaded.Get().General.UsageMode)
}

func TestUpdateKeepsStoredValueOfOverriddenField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)
	m.SetOverrides(Overrides{StateDir: "/tmp/env-only-dir", UsageMode: "reading"})

	cfg := *m.Get()
	cfg.Breaks.RestBreak.LimitSeconds = 3000
	require.NoError(t, m.Update(&cfg))

	assert.Equal(t, "/tmp/env-only-dir", m.Get().General.StateDir)
	assert.Equal(t, "reading", m.Get().General.UsageMode)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), reloaded.Get().Breaks.RestBreak.LimitSeconds)
	assert.Empty(t, reloaded.Get().General.StateDir)
	assert.Equal(t, "normal", reloaded.Get().General.UsageMode)
}

func TestSetValueReplacesOverride(t *testing.T) {
	m := NewMemoryManager(nil)
	m.SetOverrides(Overrides{UsageMode: "reading"})
	assert.Equal(t, "reading", m.Get().General.UsageMode)

	require.NoError(t, m.SetValue("general.usage_mode", "normal"))
	assert.Equal(t, "normal", m.Get().General.UsageMode)
}
