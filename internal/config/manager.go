package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/siegfried/workrave/internal/observer"
)

const (
	appName        = "workrave"
	configFileName = "config.yaml"
)

// Manager handles loading and saving configuration
type Manager struct {
	configPath string
	// file is what Save writes; config is file with overrides applied.
	file      *Config
	config    *Config
	overrides Overrides
	changed   observer.Signal[*Config]
}

// NewManager creates a config manager for the file at path. An empty path
// selects the per-user config directory. A missing file is created with
// defaults.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		configDir, err := getConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get config directory")
		}
		path = filepath.Join(configDir, configFileName)
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigDirCreation, err)
	}

	m := &Manager{
		configPath: path,
	}

	// Load or create default config
	if err := m.Load(); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			m.file = DefaultConfig()
			m.refresh()
			if err := m.Save(); err != nil {
				return nil, errors.Wrap(err, "failed to save default config")
			}
		} else {
			return nil, errors.Wrap(err, "failed to load config")
		}
	}

	return m, nil
}

// NewMemoryManager creates a manager that never touches the disk.
func NewMemoryManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Manager{file: cfg}
	m.refresh()
	return m
}

// Path returns the config file path, or "" for an in-memory manager.
func (m *Manager) Path() string {
	return m.configPath
}

// Dir returns the directory holding the config file.
func (m *Manager) Dir() string {
	if m.configPath == "" {
		return ""
	}
	return filepath.Dir(m.configPath)
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return errors.WithStack(err)
	}

	// Start from defaults so keys missing in the file keep their values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	m.file = config
	m.refresh()
	return nil
}

// Save writes the configuration to disk, without environment overrides
func (m *Manager) Save() error {
	stored := m.stored()
	if m.configPath == "" {
		return nil
	}

	if err := stored.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	data, err := yaml.Marshal(stored)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Get returns the current configuration, overrides included
func (m *Manager) Get() *Config {
	if m.config == nil {
		m.refresh()
	}
	return m.config
}

func (m *Manager) stored() *Config {
	if m.file == nil {
		m.file = DefaultConfig()
	}
	return m.file
}

func (m *Manager) refresh() {
	effective := *m.stored()
	m.overrides.apply(&effective)
	m.config = &effective
}

// Update replaces the configuration, saves it and notifies subscribers.
// Fields still holding an environment override keep their stored value.
func (m *Manager) Update(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	stored := *config
	m.overrides.strip(&stored, m.stored())
	return m.commit(&stored)
}

func (m *Manager) commit(stored *Config) error {
	if err := stored.Validate(); err != nil {
		return err
	}
	m.file = stored
	m.refresh()
	if err := m.Save(); err != nil {
		return err
	}
	m.changed.Emit(m.config)
	return nil
}

// OnChange registers fn to run after every successful update.
func (m *Manager) OnChange(fn func(*Config)) *observer.Subscription {
	return m.changed.Connect(fn)
}

// Value returns the value of a dotted key such as
// "breaks.micro_pause.enabled", formatted as a string.
func (m *Manager) Value(key string) (string, error) {
	cfg := *m.Get()
	ptr, err := cfg.field(key)
	if err != nil {
		return "", err
	}

	switch v := ptr.(type) {
	case *bool:
		return strconv.FormatBool(*v), nil
	case *int:
		return strconv.Itoa(*v), nil
	case *int64:
		return strconv.FormatInt(*v, 10), nil
	case *string:
		return *v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// SetValue parses value into the dotted key, saves it and notifies
// subscribers. An environment override of the key is dropped.
func (m *Manager) SetValue(key, value string) error {
	cfg := *m.stored()
	ptr, err := cfg.field(key)
	if err != nil {
		return err
	}

	switch v := ptr.(type) {
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
		*v = b
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
		*v = n
	case *int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
		}
		*v = n
	case *string:
		*v = value
	}

	prev := m.overrides
	m.overrides.clear(key)
	if err := m.commit(&cfg); err != nil {
		m.overrides = prev
		m.refresh()
		return err
	}
	return nil
}

// field resolves a dotted key to a pointer into c.
func (c *Config) field(key string) (any, error) {
	parts := strings.Split(key, ".")

	switch {
	case len(parts) == 3 && parts[0] == "breaks":
		var b *BreakConfig
		switch parts[1] {
		case "micro_pause":
			b = &c.Breaks.MicroPause
		case "rest_break":
			b = &c.Breaks.RestBreak
		case "daily_limit":
			b = &c.Breaks.DailyLimit
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		switch parts[2] {
		case "enabled":
			return &b.Enabled, nil
		case "max_preludes":
			return &b.MaxPreludes, nil
		case "limit_seconds":
			return &b.LimitSeconds, nil
		case "auto_reset_seconds":
			return &b.AutoResetSeconds, nil
		case "reset_pred":
			return &b.ResetPred, nil
		case "snooze_seconds":
			return &b.SnoozeSeconds, nil
		case "use_micro_break_activity":
			return &b.UseMicroBreakActivity, nil
		}

	case len(parts) == 2 && parts[0] == "monitor":
		switch parts[1] {
		case "noise_ms":
			return &c.Monitor.NoiseMs, nil
		case "activity_ms":
			return &c.Monitor.ActivityMs, nil
		case "idle_ms":
			return &c.Monitor.IdleMs, nil
		case "sensitivity":
			return &c.Monitor.Sensitivity, nil
		case "poll_interval_ms":
			return &c.Monitor.PollIntervalMs, nil
		}

	case len(parts) == 2 && parts[0] == "general":
		switch parts[1] {
		case "operation_mode":
			return &c.General.OperationMode, nil
		case "usage_mode":
			return &c.General.UsageMode, nil
		case "operation_mode_auto_reset_minutes":
			return &c.General.OperationModeAutoResetMinutes, nil
		case "operation_mode_auto_reset_time":
			return &c.General.OperationModeAutoResetTime, nil
		case "insist_policy":
			return &c.General.InsistPolicy, nil
		case "state_dir":
			return &c.General.StateDir, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// getConfigDir returns the application's config directory
// On Linux: ~/.config/workrave
func getConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}
