package activity

import "github.com/siegfried/workrave/internal/core"

type readingState int

const (
	readingIdle readingState = iota
	readingActive
	readingPrelude
	readingTaking
)

// ReadingMonitor is used in reading mode, where the user may sit without
// touching any input device. Once active, the user stays active until a
// break is actually taken.
type ReadingMonitor struct {
	monitor   Monitor
	state     readingState
	suspended bool
}

// NewReadingMonitor creates a reading monitor over monitor.
func NewReadingMonitor(monitor Monitor) *ReadingMonitor {
	return &ReadingMonitor{monitor: monitor}
}

func (m *ReadingMonitor) IsActive() bool {
	if m.suspended {
		return false
	}

	switch m.state {
	case readingIdle:
		if m.monitor.IsActive() {
			m.state = readingActive
			return true
		}
		return false
	case readingTaking:
		return false
	default:
		return true
	}
}

// HandleBreakEvent follows the break lifecycle.
func (m *ReadingMonitor) HandleBreakEvent(_ core.BreakID, event core.BreakEvent) {
	switch event {
	case core.EventShowPrelude:
		m.state = readingPrelude
	case core.EventShowBreak, core.EventShowBreakForced:
		m.state = readingTaking
	case core.EventBreakTaken:
		m.state = readingIdle
	case core.EventBreakIdle:
		if m.state != readingIdle {
			m.state = readingActive
		}
	}
}

func (m *ReadingMonitor) Suspend() {
	m.suspended = true
}

func (m *ReadingMonitor) Resume() {
	m.suspended = false
	m.state = readingIdle
}

func (m *ReadingMonitor) ForceIdle() {
	if m.state == readingActive {
		m.state = readingIdle
	}
}

func (m *ReadingMonitor) Mark() uint64 {
	return m.monitor.Mark()
}
