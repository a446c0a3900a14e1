package activity

import "github.com/siegfried/workrave/internal/timer"

// TimerMonitor derives activity from a break timer: the user counts as
// active until the timer has been idle for its full auto-reset interval.
// It lets the daily limit follow micro-break activity.
type TimerMonitor struct {
	monitor    Monitor
	timer      *timer.Timer
	suspended  bool
	forcedIdle bool
}

// NewTimerMonitor creates a monitor over t, using monitor to end forced
// idleness.
func NewTimerMonitor(monitor Monitor, t *timer.Timer) *TimerMonitor {
	return &TimerMonitor{monitor: monitor, timer: t}
}

func (m *TimerMonitor) IsActive() bool {
	if m.forcedIdle {
		if !m.monitor.IsActive() {
			return false
		}
		m.forcedIdle = false
	}

	if m.suspended {
		return false
	}

	if m.timer.State() == timer.StateStopped && m.timer.ElapsedIdleTime() >= m.timer.AutoReset() {
		return false
	}
	return true
}

func (m *TimerMonitor) Suspend() {
	m.suspended = true
}

func (m *TimerMonitor) Resume() {
	m.suspended = false
}

func (m *TimerMonitor) ForceIdle() {
	m.forcedIdle = true
}

func (m *TimerMonitor) Mark() uint64 {
	return m.monitor.Mark()
}
