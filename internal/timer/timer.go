package timer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/siegfried/workrave/internal/clock"
)

// State represents the current state of the timer
type State int

const (
	// StateInvalid means the timer has not been started or stopped yet
	StateInvalid State = iota
	// StateRunning means the user is active and elapsed time accumulates
	StateRunning
	// StateStopped means the user is idle and idle time accumulates
	StateStopped
)

// String returns a human-readable string for the state
func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	default:
		return "Invalid"
	}
}

// Event is the outcome of a single Process call.
type Event int

const (
	EventNone Event = iota
	EventLimitReached
	EventNaturalReset
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventLimitReached:
		return "limit_reached"
	case EventNaturalReset:
		return "natural_reset"
	case EventReset:
		return "reset"
	default:
		return "none"
	}
}

// Timer accumulates active and idle time for one break. All times are
// seconds; absolute times are monotonic seconds unless noted otherwise,
// and zero means "not set".
type Timer struct {
	id    string
	clock clock.Source

	enabled         bool
	frozen          bool
	state           State
	snoozeInterval  int64
	snoozeInhibited bool

	limitEnabled      bool
	limitInterval     int64
	autoResetEnabled  bool
	autoResetInterval int64
	dailyReset        *DayPredicate

	elapsed            int64
	elapsedAtLastLimit int64
	elapsedIdle        int64
	totalOverdue       int64

	lastStartTime int64
	lastStopTime  int64
	lastResetTime int64
	nextResetTime int64
	nextLimitTime int64

	// Wall clock (unix seconds).
	lastDailyResetTime int64
	nextDailyResetTime int64
}

// New creates a disabled timer with the given persistent id.
func New(id string, src clock.Source) *Timer {
	return &Timer{
		id:                id,
		clock:             src,
		state:             StateInvalid,
		snoozeInterval:    60,
		limitEnabled:      true,
		limitInterval:     600,
		autoResetEnabled:  true,
		autoResetInterval: 120,
	}
}

func (t *Timer) now() int64 {
	return clock.MonotonicSec(t.clock)
}

func (t *Timer) realNow() int64 {
	return clock.RealSec(t.clock)
}

// ID returns the persistent id of the timer.
func (t *Timer) ID() string {
	return t.id
}

// Enable starts tracking time.
func (t *Timer) Enable() {
	if t.enabled {
		return
	}
	t.enabled = true
	t.snoozeInhibited = false
	t.Stop()

	if t.IsAutoResetEnabled() && t.ElapsedTime() == 0 {
		// Start with idle time at maximum.
		t.elapsedIdle = t.autoResetInterval
	}

	if t.IsLimitEnabled() && t.ElapsedTime() >= t.limitInterval {
		// Overdue; snooze.
		t.elapsedAtLastLimit = 0
		t.computeNextLimitTime()
	}

	t.computeNextResetTime()
	t.computeNextDailyResetTime()
}

// Disable stops tracking time.
func (t *Timer) Disable() {
	if !t.enabled {
		return
	}
	t.enabled = false
	t.Stop()

	t.lastStartTime = 0
	t.lastStopTime = 0
	t.lastResetTime = 0
	t.nextLimitTime = 0
	t.nextResetTime = 0
	t.state = StateInvalid
}

// IsEnabled reports whether the timer is enabled.
func (t *Timer) IsEnabled() bool {
	return t.enabled
}

// Snooze postpones the next limit-reached event by the snooze interval.
func (t *Timer) Snooze() {
	if !t.enabled {
		return
	}
	t.nextLimitTime = 0
	t.elapsedAtLastLimit = t.ElapsedTime()
	t.computeNextLimitTime()
}

// InhibitSnooze prevents repeated limit-reached events until the next reset.
func (t *Timer) InhibitSnooze() {
	t.snoozeInhibited = true
	t.computeNextLimitTime()
}

// Start marks the user as active.
func (t *Timer) Start() {
	if t.state == StateRunning {
		return
	}

	if !t.frozen {
		t.lastStartTime = t.now()
		t.elapsedIdle = 0
	} else {
		// Frozen: active time does not count, idle time keeps growing.
		if t.lastStopTime != 0 {
			t.elapsedIdle += t.now() - t.lastStopTime
		}
		t.lastStartTime = 0
	}

	t.lastStopTime = 0
	t.nextResetTime = 0
	t.state = StateRunning

	t.computeNextLimitTime()
}

// Stop marks the user as idle.
func (t *Timer) Stop() {
	if t.state == StateStopped {
		return
	}

	t.lastStopTime = t.now()
	if t.lastStartTime != 0 {
		t.elapsed += t.lastStopTime - t.lastStartTime
	}

	t.lastStartTime = 0
	t.nextLimitTime = 0
	t.state = StateStopped

	t.computeNextResetTime()
}

// Reset clears the elapsed time, as if a break was taken.
func (t *Timer) Reset() {
	elapsed := t.ElapsedTime()
	if t.IsLimitEnabled() && elapsed > t.limitInterval {
		t.totalOverdue += elapsed - t.limitInterval
	}

	now := t.now()
	t.elapsed = 0
	t.elapsedAtLastLimit = 0
	t.lastResetTime = now
	t.snoozeInhibited = false

	if t.state == StateRunning {
		// Pretend the timer just started.
		t.lastStartTime = now
		t.lastStopTime = 0
		t.nextResetTime = 0
		t.computeNextLimitTime()
		t.elapsedIdle = 0
	} else {
		t.lastStartTime = 0
		t.nextResetTime = 0
		t.nextLimitTime = 0

		if t.IsAutoResetEnabled() {
			t.elapsedIdle = t.autoResetInterval
			t.lastStopTime = now
		}
	}

	t.nextDailyResetTime = 0
	t.computeNextDailyResetTime()
}

// Freeze stops or resumes the accumulation of active time while the user
// remains active.
func (t *Timer) Freeze(freeze bool) {
	if t.enabled {
		if freeze && !t.frozen {
			if t.lastStartTime != 0 && t.state == StateRunning {
				t.elapsed += t.now() - t.lastStartTime
				t.lastStartTime = 0
			}
			t.nextLimitTime = 0
		} else if !freeze && t.frozen {
			if t.state == StateRunning {
				t.lastStartTime = t.now()
				t.elapsedIdle = 0
				t.computeNextLimitTime()
			}
		}
	}
	t.frozen = freeze
}

// IsFrozen reports whether the timer is frozen.
func (t *Timer) IsFrozen() bool {
	return t.frozen
}

// Process advances the timer by one heartbeat.
func (t *Timer) Process(userActive bool) Event {
	now := t.now()

	if t.enabled {
		if userActive && t.state != StateRunning {
			t.Start()
		} else if !userActive && t.state == StateRunning {
			t.Stop()
		}
	}

	switch {
	case t.dailyReset != nil && t.nextDailyResetTime != 0 && t.realNow() >= t.nextDailyResetTime:
		t.Reset()
		t.lastDailyResetTime = t.realNow()
		t.nextDailyResetTime = 0
		t.computeNextDailyResetTime()
		return EventReset

	case t.nextLimitTime != 0 && now >= t.nextLimitTime:
		t.nextLimitTime = 0
		t.elapsedAtLastLimit = t.ElapsedTime()
		t.computeNextLimitTime()
		return EventLimitReached

	case t.nextResetTime != 0 && now >= t.nextResetTime:
		natural := t.IsLimitEnabled() && t.limitInterval >= t.ElapsedTime()
		t.nextResetTime = 0
		t.Reset()
		if natural {
			return EventNaturalReset
		}
		return EventReset
	}

	return EventNone
}

// ElapsedTime returns the accumulated active time.
func (t *Timer) ElapsedTime() int64 {
	ret := t.elapsed
	if t.enabled && t.lastStartTime != 0 {
		ret += t.now() - t.lastStartTime
	}
	return ret
}

// ElapsedIdleTime returns the time since the user went idle.
func (t *Timer) ElapsedIdleTime() int64 {
	ret := t.elapsedIdle
	if t.enabled && t.lastStopTime != 0 {
		ret += t.now() - t.lastStopTime
	}
	return ret
}

// IsRunning reports whether the user is currently counted as active.
func (t *Timer) IsRunning() bool {
	return t.state == StateRunning
}

// State returns the current timer state.
func (t *Timer) State() State {
	return t.state
}

// SetAutoReset sets the idle time after which the timer resets.
func (t *Timer) SetAutoReset(seconds int64) {
	if seconds > t.autoResetInterval {
		t.snoozeInhibited = false
	}
	t.autoResetInterval = seconds
	t.computeNextResetTime()
}

// SetAutoResetEnabled enables or disables the auto reset.
func (t *Timer) SetAutoResetEnabled(enabled bool) {
	t.autoResetEnabled = enabled
	t.computeNextResetTime()
}

// IsAutoResetEnabled reports whether an idle period resets the timer.
func (t *Timer) IsAutoResetEnabled() bool {
	return t.autoResetEnabled && t.autoResetInterval > 0
}

// AutoReset returns the auto reset interval.
func (t *Timer) AutoReset() int64 {
	return t.autoResetInterval
}

// NextResetTime returns the predicted auto reset time, or zero.
func (t *Timer) NextResetTime() int64 {
	return t.nextResetTime
}

// SetDailyReset installs the wall clock reset predicate. nil disables it.
func (t *Timer) SetDailyReset(pred *DayPredicate) {
	t.dailyReset = pred
	if pred == nil {
		t.nextDailyResetTime = 0
		return
	}
	t.computeNextDailyResetTime()
}

// SetLimit sets the active time after which the break is due.
func (t *Timer) SetLimit(seconds int64) {
	t.limitInterval = seconds
	if t.ElapsedTime() < seconds {
		// Limit increased; no limit was reached yet.
		t.elapsedAtLastLimit = 0
	}
	t.computeNextLimitTime()
}

// SetLimitEnabled enables or disables the limit.
func (t *Timer) SetLimitEnabled(enabled bool) {
	if t.limitEnabled != enabled {
		t.limitEnabled = enabled
		t.computeNextLimitTime()
	}
}

// IsLimitEnabled reports whether the timer has a limit.
func (t *Timer) IsLimitEnabled() bool {
	return t.limitEnabled && t.limitInterval > 0
}

// Limit returns the limit interval.
func (t *Timer) Limit() int64 {
	return t.limitInterval
}

// NextLimitTime returns the predicted time of the next limit-reached
// event, or zero.
func (t *Timer) NextLimitTime() int64 {
	return t.nextLimitTime
}

// ElapsedAtLastLimit returns the active time at the last limit or snooze.
// Repeated limit events are counted from there.
func (t *Timer) ElapsedAtLastLimit() int64 {
	return t.elapsedAtLastLimit
}

// SetSnooze sets the snooze interval.
func (t *Timer) SetSnooze(seconds int64) {
	t.snoozeInterval = seconds
}

// Snooze interval.
func (t *Timer) SnoozeInterval() int64 {
	return t.snoozeInterval
}

// TotalOverdueTime returns the overdue time accumulated today, including
// the current overdue period.
func (t *Timer) TotalOverdueTime() int64 {
	ret := t.totalOverdue
	elapsed := t.ElapsedTime()
	if t.IsLimitEnabled() && elapsed > t.limitInterval {
		ret += elapsed - t.limitInterval
	}
	return ret
}

// DailyReset clears the overdue accumulator.
func (t *Timer) DailyReset() {
	t.totalOverdue = 0
}

// SerializeState returns the timer state as a single line, starting with
// the timer id.
func (t *Timer) SerializeState() string {
	inhibited := 0
	if t.snoozeInhibited {
		inhibited = 1
	}
	return fmt.Sprintf("%s %d %d %d %d %d %d %d %d",
		t.id,
		t.realNow(),
		t.ElapsedTime(),
		t.lastDailyResetTime,
		t.totalOverdue,
		inhibited,
		0,
		t.elapsedAtLastLimit,
		0,
	)
}

// DeserializeState restores a state produced by SerializeState, without
// the leading id. Version 3 carries an extra trailing field.
func (t *Timer) DeserializeState(state string, version int) error {
	fields := strings.Fields(state)
	want := 7
	if version >= 3 {
		want = 8
	}
	if len(fields) < want {
		return fmt.Errorf("%w: %d fields, want %d", ErrMalformedState, len(fields), want)
	}

	values := make([]int64, want)
	for i := 0; i < want; i++ {
		v, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrMalformedState, i, err)
		}
		values[i] = v
	}

	saveTime := values[0]
	elapsed := values[1]
	lastReset := values[2]
	overdue := values[3]
	inhibited := values[4] != 0
	lastLimitElapsed := values[6]

	if lastReset > saveTime {
		lastReset = saveTime
	}

	t.lastDailyResetTime = lastReset
	t.totalOverdue = overdue
	t.elapsed = 0
	t.lastStartTime = 0
	t.lastStopTime = 0

	tooOld := t.IsAutoResetEnabled() && t.realNow()-saveTime > t.autoResetInterval
	if !tooOld {
		if t.IsAutoResetEnabled() {
			t.nextResetTime = t.now() + t.autoResetInterval
		}
		t.elapsed = elapsed
		t.snoozeInhibited = inhibited
	}

	if t.IsLimitEnabled() && t.ElapsedTime() >= t.limitInterval {
		// Overdue; snooze.
		t.elapsedAtLastLimit = lastLimitElapsed
		t.computeNextLimitTime()
	}

	t.computeNextDailyResetTime()
	return nil
}

func (t *Timer) computeNextLimitTime() {
	t.nextLimitTime = 0

	if !t.enabled || t.state != StateRunning || t.lastStartTime == 0 || !t.IsLimitEnabled() {
		return
	}

	if t.ElapsedTime() >= t.limitInterval {
		// Limit already reached: repeat after snoozeInterval of activity.
		if !t.snoozeInhibited {
			t.nextLimitTime = t.lastStartTime - t.elapsed + t.elapsedAtLastLimit + t.snoozeInterval
		}
		return
	}

	t.nextLimitTime = t.lastStartTime + t.limitInterval - t.elapsed
}

func (t *Timer) computeNextResetTime() {
	t.nextResetTime = 0

	if !t.enabled || t.state != StateStopped || t.lastStopTime == 0 || !t.IsAutoResetEnabled() {
		return
	}

	t.nextResetTime = t.lastStopTime + t.autoResetInterval - t.elapsedIdle
	if t.nextResetTime <= t.lastResetTime || t.nextResetTime <= t.lastStopTime {
		// Can't reset before the previous one.
		t.nextResetTime = 0
	}
}

// computeNextDailyResetTime runs even while the timer is disabled.
func (t *Timer) computeNextDailyResetTime() {
	if t.dailyReset == nil {
		return
	}
	if t.lastDailyResetTime == 0 {
		t.lastDailyResetTime = t.realNow()
	}
	t.nextDailyResetTime = t.dailyReset.Next(t.lastDailyResetTime)
}
