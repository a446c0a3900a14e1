package activity

import (
	"sync"
	"time"

	"github.com/siegfried/workrave/internal/clock"
)

// State is the activity state of a LocalMonitor.
type State int

const (
	StateIdle State = iota
	StateForcedIdle
	StateNoise
	StateActive
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateForcedIdle:
		return "ForcedIdle"
	case StateNoise:
		return "Noise"
	case StateActive:
		return "Active"
	case StateSuspended:
		return "Suspended"
	default:
		return "Unknown"
	}
}

// Params are the thresholds of a LocalMonitor.
type Params struct {
	// Noise is the longest gap between two actions that still counts as
	// one burst of input.
	Noise time.Duration
	// Activity is how long a burst must last before the user is active.
	Activity time.Duration
	// Idle is how long without input before an active user becomes idle.
	Idle time.Duration
	// Sensitivity is the mouse movement, in pixels, that counts as input.
	Sensitivity int
}

// DefaultParams returns the default monitor thresholds.
func DefaultParams() Params {
	return Params{
		Noise:       9000 * time.Millisecond,
		Activity:    1000 * time.Millisecond,
		Idle:        5000 * time.Millisecond,
		Sensitivity: 3,
	}
}

// LocalMonitor turns raw input actions into an active/idle verdict. It is
// safe for concurrent use; input arrives from the poller goroutine.
type LocalMonitor struct {
	clock  clock.Source
	params Params

	mu          sync.Mutex
	state       State
	firstAction time.Duration
	lastAction  time.Duration
	mark        uint64

	prevX, prevY  int
	buttonPressed bool
}

// NewLocalMonitor creates an idle monitor.
func NewLocalMonitor(src clock.Source, params Params) *LocalMonitor {
	return &LocalMonitor{clock: src, params: params, state: StateIdle}
}

// SetParams replaces the thresholds and resets the monitor to idle.
func (m *LocalMonitor) SetParams(params Params) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = params
	if m.state != StateSuspended {
		m.state = StateIdle
	}
}

// Params returns the current thresholds.
func (m *LocalMonitor) Params() Params {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// State returns the current state, decaying Active to Idle first.
func (m *LocalMonitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decay()
	return m.state
}

func (m *LocalMonitor) IsActive() bool {
	return m.State() == StateActive
}

func (m *LocalMonitor) decay() {
	if m.state == StateActive && m.clock.Monotonic()-m.lastAction > m.params.Idle {
		m.state = StateIdle
	}
}

func (m *LocalMonitor) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateSuspended
}

func (m *LocalMonitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
}

// ForceIdle makes the user idle until new input arrives. It has no effect
// while suspended.
func (m *LocalMonitor) ForceIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateSuspended {
		m.state = StateForcedIdle
		m.lastAction = 0
	}
}

func (m *LocalMonitor) Mark() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mark
}

// ActionNotify records one input action.
func (m *LocalMonitor) ActionNotify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.action()
}

func (m *LocalMonitor) action() {
	now := m.clock.Monotonic()

	switch m.state {
	case StateIdle, StateForcedIdle:
		m.firstAction = now
		if m.params.Activity == 0 {
			m.state = StateActive
		} else {
			m.state = StateNoise
		}

	case StateNoise:
		if now-m.lastAction > m.params.Noise {
			m.firstAction = now
		} else if now-m.firstAction >= m.params.Activity {
			m.state = StateActive
		}
	}

	m.lastAction = now
	m.mark++
}

// MouseNotify reports a pointer position. Movement below the sensitivity
// is ignored unless a button is held or the wheel turned.
func (m *LocalMonitor) MouseNotify(x, y, wheelDelta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dx, dy := abs(x-m.prevX), abs(y-m.prevY)
	m.prevX, m.prevY = x, y

	if dx >= m.params.Sensitivity || dy >= m.params.Sensitivity || wheelDelta != 0 || m.buttonPressed {
		m.action()
	}
}

// ButtonNotify reports a mouse button press or release.
func (m *LocalMonitor) ButtonNotify(pressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buttonPressed = pressed
	if pressed {
		m.action()
	}
}

// KeyboardNotify reports a key press.
func (m *LocalMonitor) KeyboardNotify() {
	m.ActionNotify()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
