package config

import (
	"os"

	"github.com/siegfried/workrave/internal/core"
)

// Overrides are settings taken from the environment. They apply on top of
// the stored configuration and are never written back to the file.
type Overrides struct {
	StateDir     string
	InsistPolicy string
	UsageMode    string
}

// OverridesFromEnv reads the WORKRAVE_* variables
// Invalid values are ignored
func OverridesFromEnv() Overrides {
	var o Overrides

	o.StateDir = os.Getenv("WORKRAVE_STATE_DIR")

	if policy := os.Getenv("WORKRAVE_INSIST_POLICY"); policy != "" {
		if _, err := core.ParseInsistPolicy(policy); err == nil {
			o.InsistPolicy = policy
		}
	}

	if mode := os.Getenv("WORKRAVE_USAGE_MODE"); mode != "" {
		if _, err := core.ParseUsageMode(mode); err == nil {
			o.UsageMode = mode
		}
	}

	return o
}

// LoadFromEnv applies environment overrides to cfg
func LoadFromEnv(cfg *Config) {
	OverridesFromEnv().apply(cfg)
}

func (o Overrides) apply(cfg *Config) {
	if o.StateDir != "" {
		cfg.General.StateDir = o.StateDir
	}
	if o.InsistPolicy != "" {
		cfg.General.InsistPolicy = o.InsistPolicy
	}
	if o.UsageMode != "" {
		cfg.General.UsageMode = o.UsageMode
	}
}

// strip puts the stored values back into cfg wherever cfg still carries
// the overridden value.
func (o Overrides) strip(cfg, stored *Config) {
	if o.StateDir != "" && cfg.General.StateDir == o.StateDir {
		cfg.General.StateDir = stored.General.StateDir
	}
	if o.InsistPolicy != "" && cfg.General.InsistPolicy == o.InsistPolicy {
		cfg.General.InsistPolicy = stored.General.InsistPolicy
	}
	if o.UsageMode != "" && cfg.General.UsageMode == o.UsageMode {
		cfg.General.UsageMode = stored.General.UsageMode
	}
}

// clear drops the override of a dotted key, if any.
func (o *Overrides) clear(key string) {
	switch key {
	case "general.state_dir":
		o.StateDir = ""
	case "general.insist_policy":
		o.InsistPolicy = ""
	case "general.usage_mode":
		o.UsageMode = ""
	}
}

// ApplyEnv reads the environment overrides into the manager. They show in
// Get but Save never writes them.
func (m *Manager) ApplyEnv() {
	m.SetOverrides(OverridesFromEnv())
}

// SetOverrides replaces the overrides layered over the stored config.
func (m *Manager) SetOverrides(o Overrides) {
	m.stored()
	m.overrides = o
	m.refresh()
}

// StateDir returns the directory for the state file: the configured one,
// or the config file's directory.
func (m *Manager) StateDir() string {
	if dir := m.Get().General.StateDir; dir != "" {
		return dir
	}
	return m.Dir()
}
