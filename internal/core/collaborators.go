package core

// App is the user interface that shows prelude and break windows. At most
// one break window exists at a time.
type App interface {
	CreatePreludeWindow(id BreakID)
	CreateBreakWindow(id BreakID, hint BreakHint)
	ShowBreakWindow()
	HideBreakWindow()
	RefreshBreakWindow()
	SetBreakProgress(value, max int)
	SetPreludeStage(stage PreludeStage)
	SetPreludeProgressText(text PreludeProgressText)
}

// Bridge publishes core state to remote observers. Implementations
// swallow their own failures.
type Bridge interface {
	SignalBreakEvent(id BreakID, event BreakEvent)
	SignalBreakStageChanged(id BreakID, stage BreakStage)
	SignalOperationModeChanged(mode OperationMode)
	SignalUsageModeChanged(mode UsageMode)
}

// NopBridge is a Bridge that publishes nothing.
type NopBridge struct{}

func (NopBridge) SignalBreakEvent(BreakID, BreakEvent) {}
func (NopBridge) SignalBreakStageChanged(BreakID, BreakStage) {}
func (NopBridge) SignalOperationModeChanged(OperationMode) {}
func (NopBridge) SignalUsageModeChanged(UsageMode) {}

// BreakCounter is a per-break statistics counter.
type BreakCounter int

const (
	CounterUniqueBreaks BreakCounter = iota
	CounterPrompted
	CounterTaken
	CounterNaturalTaken
	CounterSkipped
	CounterPostponed
	CounterIgnored
	CounterTotalOverdue
)

// BreakCounters lists every per-break counter.
var BreakCounters = [...]BreakCounter{
	CounterUniqueBreaks,
	CounterPrompted,
	CounterTaken,
	CounterNaturalTaken,
	CounterSkipped,
	CounterPostponed,
	CounterIgnored,
	CounterTotalOverdue,
}

func (c BreakCounter) String() string {
	switch c {
	case CounterUniqueBreaks:
		return "unique_breaks"
	case CounterPrompted:
		return "prompted"
	case CounterTaken:
		return "taken"
	case CounterNaturalTaken:
		return "natural_taken"
	case CounterSkipped:
		return "skipped"
	case CounterPostponed:
		return "postponed"
	case CounterIgnored:
		return "ignored"
	case CounterTotalOverdue:
		return "total_overdue"
	default:
		return "unknown"
	}
}

// Counter is a day-wide statistics value.
type Counter int

const (
	ValueTotalActiveTime Counter = iota
)

func (c Counter) String() string {
	switch c {
	case ValueTotalActiveTime:
		return "total_active_time"
	default:
		return "unknown"
	}
}

// Statistics records per-day break counters. Failures are reported to the
// caller, which decides whether to log them.
type Statistics interface {
	IncrementBreakCounter(id BreakID, counter BreakCounter) error
	SetBreakCounter(id BreakID, counter BreakCounter, value int64) error
	SetCounter(counter Counter, value int64) error
	StartNewDay() error
	// Update records whether the user is active and flushes the current
	// day.
	Update(active bool) error
}

// ParseBreakCounter converts a counter name into a BreakCounter.
func ParseBreakCounter(name string) (BreakCounter, bool) {
	for _, c := range BreakCounters {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}
