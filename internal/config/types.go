package config

import (
	"fmt"
	"time"

	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/timer"
)

// Config holds all user configuration for the break engine
type Config struct {
	Breaks  BreaksConfig  `yaml:"breaks"`
	Monitor MonitorConfig `yaml:"monitor"`
	General GeneralConfig `yaml:"general"`
}

// BreakConfig holds the settings of one break
type BreakConfig struct {
	Enabled bool `yaml:"enabled"`
	// MaxPreludes is the number of preludes before a break is forced; -1
	// means never force.
	MaxPreludes      int    `yaml:"max_preludes"`
	LimitSeconds     int64  `yaml:"limit_seconds"`
	AutoResetSeconds int64  `yaml:"auto_reset_seconds"`
	ResetPred        string `yaml:"reset_pred"`
	SnoozeSeconds    int64  `yaml:"snooze_seconds"`
	// UseMicroBreakActivity makes the break timer follow micro-break
	// activity instead of raw input. Only the daily limit honours it.
	UseMicroBreakActivity bool `yaml:"use_micro_break_activity"`
}

// BreaksConfig holds the settings of every break
type BreaksConfig struct {
	MicroPause BreakConfig `yaml:"micro_pause"`
	RestBreak  BreakConfig `yaml:"rest_break"`
	DailyLimit BreakConfig `yaml:"daily_limit"`
}

// MonitorConfig holds the activity monitor thresholds
type MonitorConfig struct {
	NoiseMs        int `yaml:"noise_ms"`
	ActivityMs     int `yaml:"activity_ms"`
	IdleMs         int `yaml:"idle_ms"`
	Sensitivity    int `yaml:"sensitivity"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// GeneralConfig holds mode persistence and global behaviour
type GeneralConfig struct {
	OperationMode string `yaml:"operation_mode"`
	UsageMode     string `yaml:"usage_mode"`
	// OperationModeAutoResetMinutes is 0 for no auto reset and -1 for a
	// reset at the next daily reset.
	OperationModeAutoResetMinutes int    `yaml:"operation_mode_auto_reset_minutes"`
	OperationModeAutoResetTime    int64  `yaml:"operation_mode_auto_reset_time"`
	InsistPolicy                  string `yaml:"insist_policy"`
	StateDir                      string `yaml:"state_dir"`
}

// DefaultConfig returns a new Config with the stock break schedule
func DefaultConfig() *Config {
	return &Config{
		Breaks: BreaksConfig{
			MicroPause: BreakConfig{
				Enabled:          true,
				MaxPreludes:      3,
				LimitSeconds:     180,
				AutoResetSeconds: 30,
				SnoozeSeconds:    150,
			},
			RestBreak: BreakConfig{
				Enabled:          true,
				MaxPreludes:      3,
				LimitSeconds:     2700,
				AutoResetSeconds: 600,
				SnoozeSeconds:    180,
			},
			DailyLimit: BreakConfig{
				Enabled:          true,
				MaxPreludes:      3,
				LimitSeconds:     14400,
				AutoResetSeconds: 0,
				ResetPred:        "day/4:00",
				SnoozeSeconds:    1200,
			},
		},
		Monitor: MonitorConfig{
			NoiseMs:        9000,
			ActivityMs:     1000,
			IdleMs:         5000,
			Sensitivity:    3,
			PollIntervalMs: 250,
		},
		General: GeneralConfig{
			OperationMode: core.OperationNormal.String(),
			UsageMode:     core.UsageNormal.String(),
			InsistPolicy:  core.InsistHalt.String(),
		},
	}
}

// Break returns the settings of the given break.
func (c *Config) Break(id core.BreakID) *BreakConfig {
	switch id {
	case core.MicroBreak:
		return &c.Breaks.MicroPause
	case core.RestBreak:
		return &c.Breaks.RestBreak
	default:
		return &c.Breaks.DailyLimit
	}
}

// PollInterval returns the idle source polling interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMs) * time.Millisecond
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	for _, id := range core.BreakIDs {
		if err := c.Break(id).validate(); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}

	m := c.Monitor
	if m.NoiseMs < 0 || m.ActivityMs < 0 || m.IdleMs < 0 || m.Sensitivity < 0 {
		return ErrInvalidMonitor
	}
	if m.PollIntervalMs <= 0 {
		return ErrInvalidPollInterval
	}

	g := c.General
	if _, err := core.ParseOperationMode(g.OperationMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMode, err)
	}
	if _, err := core.ParseUsageMode(g.UsageMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMode, err)
	}
	if _, err := core.ParseInsistPolicy(g.InsistPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInsistPolicy, err)
	}
	if g.OperationModeAutoResetMinutes < -1 {
		return ErrInvalidAutoReset
	}
	return nil
}

func (b *BreakConfig) validate() error {
	if b.LimitSeconds < 0 || b.AutoResetSeconds < 0 || b.SnoozeSeconds < 0 {
		return ErrInvalidDuration
	}
	if b.MaxPreludes < -1 {
		return ErrInvalidMaxPreludes
	}
	if _, err := timer.ParseDayPredicate(b.ResetPred, nil); err != nil {
		return err
	}
	return nil
}
