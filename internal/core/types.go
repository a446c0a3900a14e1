package core

import "fmt"

// BreakID identifies one of the three breaks. Higher values take
// precedence over lower ones.
type BreakID int

const (
	MicroBreak BreakID = iota
	RestBreak
	DailyLimit
)

// BreakIDs lists every break in ascending order.
var BreakIDs = [...]BreakID{MicroBreak, RestBreak, DailyLimit}

// BreakIDsByPrecedence lists every break, most important first. Timers are
// processed in this order on each heartbeat.
var BreakIDsByPrecedence = [...]BreakID{DailyLimit, RestBreak, MicroBreak}

// NumBreaks is the number of breaks.
const NumBreaks = len(BreakIDs)

// String returns the persistent name of the break.
func (id BreakID) String() string {
	switch id {
	case MicroBreak:
		return "micro_pause"
	case RestBreak:
		return "rest_break"
	case DailyLimit:
		return "daily_limit"
	default:
		return fmt.Sprintf("break(%d)", int(id))
	}
}

// Valid reports whether id names a known break.
func (id BreakID) Valid() bool {
	return id >= MicroBreak && id <= DailyLimit
}

// ParseBreakID converts a persistent break name back into a BreakID.
func ParseBreakID(name string) (BreakID, bool) {
	for _, id := range BreakIDs {
		if id.String() == name {
			return id, true
		}
	}
	return 0, false
}

// BreakStage is the lifecycle stage of a single break.
type BreakStage int

const (
	StageNone BreakStage = iota
	StageSnoozed
	StagePrelude
	StageDelayed
	StageTaking
)

func (s BreakStage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageSnoozed:
		return "snoozed"
	case StagePrelude:
		return "prelude"
	case StageDelayed:
		return "delayed"
	case StageTaking:
		return "taking"
	default:
		return "unknown"
	}
}

// BreakEvent is emitted on break lifecycle transitions.
type BreakEvent int

const (
	EventShowPrelude BreakEvent = iota
	EventBreakStart
	EventBreakPostponed
	EventBreakSkipped
	EventBreakTaken
	EventShowBreak
	EventShowBreakForced
	EventBreakIgnored
	EventBreakIdle
	EventBreakStop
)

func (e BreakEvent) String() string {
	switch e {
	case EventShowPrelude:
		return "show_prelude"
	case EventBreakStart:
		return "break_start"
	case EventBreakPostponed:
		return "break_postponed"
	case EventBreakSkipped:
		return "break_skipped"
	case EventBreakTaken:
		return "break_taken"
	case EventShowBreak:
		return "show_break"
	case EventShowBreakForced:
		return "show_break_forced"
	case EventBreakIgnored:
		return "break_ignored"
	case EventBreakIdle:
		return "break_idle"
	case EventBreakStop:
		return "break_stop"
	default:
		return "unknown"
	}
}

// BreakHint carries flags describing why a break was started.
type BreakHint uint

const (
	HintNormal        BreakHint = 0
	HintUserInitiated BreakHint = 1 << iota
	HintNaturalBreak
)

// Has reports whether all flags in other are set.
func (h BreakHint) Has(other BreakHint) bool {
	return h&other == other && other != 0
}

// OperationMode controls whether breaks are shown at all.
type OperationMode int

const (
	OperationNormal OperationMode = iota
	OperationSuspended
	OperationQuiet
)

func (m OperationMode) String() string {
	switch m {
	case OperationNormal:
		return "normal"
	case OperationSuspended:
		return "suspended"
	case OperationQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// ParseOperationMode converts a mode name into an OperationMode.
func ParseOperationMode(name string) (OperationMode, error) {
	switch name {
	case "normal", "":
		return OperationNormal, nil
	case "suspended":
		return OperationSuspended, nil
	case "quiet":
		return OperationQuiet, nil
	}
	return OperationNormal, fmt.Errorf("unknown operation mode %q", name)
}

// UsageMode selects how user activity is interpreted.
type UsageMode int

const (
	UsageNormal UsageMode = iota
	UsageReading
)

func (m UsageMode) String() string {
	if m == UsageReading {
		return "reading"
	}
	return "normal"
}

// ParseUsageMode converts a mode name into a UsageMode.
func ParseUsageMode(name string) (UsageMode, error) {
	switch name {
	case "normal", "":
		return UsageNormal, nil
	case "reading":
		return UsageReading, nil
	}
	return UsageNormal, fmt.Errorf("unknown usage mode %q", name)
}

// InsistPolicy determines how strongly an active break resists activity.
type InsistPolicy int

const (
	InsistInvalid InsistPolicy = iota
	InsistIgnore
	InsistHalt
	InsistReset
)

func (p InsistPolicy) String() string {
	switch p {
	case InsistIgnore:
		return "ignore"
	case InsistHalt:
		return "halt"
	case InsistReset:
		return "reset"
	default:
		return "invalid"
	}
}

// ParseInsistPolicy converts a policy name into an InsistPolicy.
func ParseInsistPolicy(name string) (InsistPolicy, error) {
	switch name {
	case "ignore":
		return InsistIgnore, nil
	case "halt", "":
		return InsistHalt, nil
	case "reset":
		return InsistReset, nil
	}
	return InsistInvalid, fmt.Errorf("unknown insist policy %q", name)
}

// PreludeStage is the visual alert level of a prelude window.
type PreludeStage int

const (
	PreludeInitial PreludeStage = iota
	PreludeWarn
	PreludeAlert
	PreludeMoveOut
)

func (s PreludeStage) String() string {
	switch s {
	case PreludeInitial:
		return "initial"
	case PreludeWarn:
		return "warn"
	case PreludeAlert:
		return "alert"
	case PreludeMoveOut:
		return "move_out"
	default:
		return "unknown"
	}
}

// PreludeProgressText selects the caption under the prelude progress bar.
type PreludeProgressText int

const (
	ProgressDisappearsIn PreludeProgressText = iota
	ProgressBreakIn
)
