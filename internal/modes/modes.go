// Package modes tracks the operation mode (normal, suspended, quiet) with
// its override stack, and the usage mode.
package modes

import (
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/observer"
)

const (
	keyOperationMode    = "general.operation_mode"
	keyUsageMode        = "general.usage_mode"
	keyAutoResetMinutes = "general.operation_mode_auto_reset_minutes"
	keyAutoResetTime    = "general.operation_mode_auto_reset_time"
)

// UntilDailyReset passed to SetOperationModeFor keeps the mode until the
// next daily reset.
const UntilDailyReset = -1

// Suspender is the part of the activity monitor driven by the operation mode.
type Suspender interface {
	Suspend()
	Resume()
}

// CoreModes owns the operation and usage modes.
type CoreModes struct {
	cfg     *config.Manager
	monitor Suspender
	clock   clock.Source

	active    core.OperationMode
	regular   core.OperationMode
	usage     core.UsageMode
	overrides map[string]core.OperationMode

	operationModeChanged observer.Signal[core.OperationMode]
	usageModeChanged     observer.Signal[core.UsageMode]
	subs                 observer.Subscriptions
}

// NewOverrideID returns a fresh id for SetOperationModeOverride.
func NewOverrideID() string {
	return uuid.NewString()
}

// New creates the modes from the persisted configuration.
func New(cfg *config.Manager, monitor Suspender, src clock.Source) *CoreModes {
	m := &CoreModes{
		cfg:       cfg,
		monitor:   monitor,
		clock:     src,
		overrides: make(map[string]core.OperationMode),
	}

	m.subs.Add(cfg.OnChange(m.onConfigChanged))

	mode, _ := core.ParseOperationMode(cfg.Get().General.OperationMode)
	m.setOperationModeInternal(mode, false)
	m.CheckAutoReset()

	usage, _ := core.ParseUsageMode(cfg.Get().General.UsageMode)
	m.setUsageModeInternal(usage, false)

	return m
}

// Close detaches the modes from the configuration.
func (m *CoreModes) Close() {
	m.subs.CancelAll()
}

// OnOperationModeChanged registers fn for operation mode changes.
func (m *CoreModes) OnOperationModeChanged(fn func(core.OperationMode)) *observer.Subscription {
	return m.operationModeChanged.Connect(fn)
}

// OnUsageModeChanged registers fn for usage mode changes.
func (m *CoreModes) OnUsageModeChanged(fn func(core.UsageMode)) *observer.Subscription {
	return m.usageModeChanged.Connect(fn)
}

// ActiveOperationMode returns the mode in effect, overrides included.
func (m *CoreModes) ActiveOperationMode() core.OperationMode {
	return m.active
}

// RegularOperationMode returns the mode restored once all overrides end.
func (m *CoreModes) RegularOperationMode() core.OperationMode {
	return m.regular
}

// IsOperationModeAnOverride reports whether any override is in place.
func (m *CoreModes) IsOperationModeAnOverride() bool {
	return len(m.overrides) > 0
}

// SetOperationMode sets the regular mode and clears any auto reset.
func (m *CoreModes) SetOperationMode(mode core.OperationMode) {
	m.setOperationModeInternal(mode, true)
	m.persist(keyAutoResetMinutes, "0")
	m.persist(keyAutoResetTime, "0")
}

// SetOperationModeFor sets the regular mode for the given number of
// minutes, or until the next daily reset for UntilDailyReset.
func (m *CoreModes) SetOperationModeFor(mode core.OperationMode, minutes int) {
	m.setOperationModeInternal(mode, true)
	m.persist(keyAutoResetMinutes, strconv.Itoa(minutes))

	resetAt := int64(0)
	if minutes > 0 {
		resetAt = m.clock.Now().Add(time.Duration(minutes) * time.Minute).Unix()
	}
	m.persist(keyAutoResetTime, strconv.FormatInt(resetAt, 10))
}

// SetOperationModeOverride installs a temporary mode under id. An empty id
// is ignored. Overrides change the active mode without signalling;
// observers poll ActiveOperationMode.
func (m *CoreModes) SetOperationModeOverride(mode core.OperationMode, id string) {
	if id == "" {
		return
	}
	m.overrides[id] = mode
	m.updateActiveOperationMode()
}

// RemoveOperationModeOverride removes the override installed under id.
// Removing the last override always reports the restored mode.
func (m *CoreModes) RemoveOperationModeOverride(id string) {
	if id == "" || len(m.overrides) == 0 {
		return
	}
	if _, ok := m.overrides[id]; !ok {
		return
	}
	delete(m.overrides, id)

	m.updateActiveOperationMode()
	if len(m.overrides) == 0 {
		m.operationModeChanged.Emit(m.active)
	}
}

func (m *CoreModes) setOperationModeInternal(mode core.OperationMode, persistent bool) {
	if m.regular == mode {
		return
	}
	m.regular = mode
	m.updateActiveOperationMode()

	if persistent {
		m.persist(keyOperationMode, mode.String())
	}
	m.operationModeChanged.Emit(m.active)
}

// effectiveMode returns the most important mode among the regular mode and
// every override: suspended, then quiet, then normal.
func (m *CoreModes) effectiveMode() core.OperationMode {
	mode := m.regular
	for _, o := range m.overrides {
		if o == core.OperationSuspended {
			return core.OperationSuspended
		}
		if o == core.OperationQuiet && mode == core.OperationNormal {
			mode = core.OperationQuiet
		}
	}
	return mode
}

func (m *CoreModes) updateActiveOperationMode() bool {
	mode := m.effectiveMode()
	if mode == m.active {
		return false
	}

	previous := m.active
	m.active = mode

	if mode == core.OperationSuspended {
		m.monitor.Suspend()
	} else if previous == core.OperationSuspended {
		m.monitor.Resume()
	}
	return true
}

// UsageMode returns the usage mode.
func (m *CoreModes) UsageMode() core.UsageMode {
	return m.usage
}

// SetUsageMode sets and persists the usage mode.
func (m *CoreModes) SetUsageMode(mode core.UsageMode) {
	m.setUsageModeInternal(mode, true)
}

func (m *CoreModes) setUsageModeInternal(mode core.UsageMode, persistent bool) {
	if m.usage == mode {
		return
	}
	m.usage = mode
	if persistent {
		m.persist(keyUsageMode, mode.String())
	}
	m.usageModeChanged.Emit(mode)
}

// CheckAutoReset reverts to normal once a timed mode has expired.
func (m *CoreModes) CheckAutoReset() {
	g := m.cfg.Get().General
	if g.OperationModeAutoResetTime <= 0 || m.clock.Now().Unix() < g.OperationModeAutoResetTime {
		return
	}
	if mode, _ := core.ParseOperationMode(g.OperationMode); mode != core.OperationNormal {
		m.SetOperationMode(core.OperationNormal)
	}
	m.persist(keyAutoResetTime, "0")
}

// Heartbeat runs the periodic checks.
func (m *CoreModes) Heartbeat() {
	m.CheckAutoReset()
}

// DailyReset ends a mode that was set until the daily reset.
func (m *CoreModes) DailyReset() {
	g := m.cfg.Get().General
	if g.OperationModeAutoResetMinutes != UntilDailyReset {
		return
	}
	if mode, _ := core.ParseOperationMode(g.OperationMode); mode != core.OperationNormal {
		m.SetOperationMode(core.OperationNormal)
	}
}

func (m *CoreModes) onConfigChanged(cfg *config.Config) {
	if mode, err := core.ParseOperationMode(cfg.General.OperationMode); err == nil && mode != m.regular {
		m.setOperationModeInternal(mode, false)
	}
	if usage, err := core.ParseUsageMode(cfg.General.UsageMode); err == nil && usage != m.usage {
		m.setUsageModeInternal(usage, false)
	}
}

func (m *CoreModes) persist(key, value string) {
	if err := m.cfg.SetValue(key, value); err != nil {
		log.Printf("Warning: failed to save %s: %v", key, err)
	}
}
