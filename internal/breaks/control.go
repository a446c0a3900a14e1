package breaks

import (
	"log"
	"path/filepath"
	"time"

	"github.com/siegfried/workrave/internal/activity"
	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/observer"
	"github.com/siegfried/workrave/internal/timer"
)

const (
	// saveStateInterval is the period, in monotonic seconds, of statistics
	// flushes and state file writes.
	saveStateInterval = 60
	// advanceWindow is the slack, in seconds, within which a rest break
	// due right after a micro break replaces it.
	advanceWindow = 30
)

// Modes is the part of the operation/usage mode owner used by Control.
type Modes interface {
	ActiveOperationMode() core.OperationMode
	UsageMode() core.UsageMode
	DailyReset()
	OnOperationModeChanged(fn func(core.OperationMode)) *observer.Subscription
}

// Options holds the collaborators of a Control.
type Options struct {
	App        core.App
	Monitor    activity.Monitor
	Modes      Modes
	Statistics core.Statistics
	Bridge     core.Bridge
	Config     *config.Manager
	Clock      clock.Source
	// StateDir holds the state file. Empty disables persistence.
	StateDir string
	// Location is used for daily reset times; nil means local time.
	Location *time.Location
}

// Control owns the timers and breaks, feeds them activity every heartbeat
// and arbitrates which break may run.
type Control struct {
	app     core.App
	monitor activity.Monitor
	modes   Modes
	stats   core.Statistics
	cfg     *config.Manager
	clock   clock.Source
	loc     *time.Location

	statePath string

	timers [core.NumBreaks]*timer.Timer
	breaks [core.NumBreaks]*Break

	readingMonitor     *activity.ReadingMonitor
	microBreakMonitor  *activity.TimerMonitor
	insistPolicy       core.InsistPolicy
	activeInsistPolicy core.InsistPolicy

	// mode is the operation mode last acted upon.
	mode core.OperationMode

	subs observer.Subscriptions
}

// NewControl creates the breaks, applies the configuration and restores
// the saved timer state.
func NewControl(opts Options) (*Control, error) {
	c := &Control{
		app:                opts.App,
		monitor:            opts.Monitor,
		modes:              opts.Modes,
		stats:              opts.Statistics,
		cfg:                opts.Config,
		clock:              opts.Clock,
		loc:                opts.Location,
		insistPolicy:       core.InsistHalt,
		activeInsistPolicy: core.InsistInvalid,
	}
	if c.stats == nil {
		c.stats = nopStatistics{}
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = core.NopBridge{}
	}
	if opts.StateDir != "" {
		c.statePath = filepath.Join(opts.StateDir, stateFileName)
	}

	c.mode = c.modes.ActiveOperationMode()
	c.subs.Add(c.modes.OnOperationModeChanged(c.onOperationModeChanged))

	for _, id := range core.BreakIDs {
		t := timer.New(id.String(), c.clock)
		model := NewStateModel(id, c.app, t, c.monitor, c.maxPreludesOf)
		b := newBreak(id, t, model, newStatistics(id, c.stats, t), bridge)

		c.timers[id] = t
		c.breaks[id] = b

		id := id
		c.subs.Add(b.OnEvent(func(e core.BreakEvent) { c.onBreakEvent(id, e) }))
	}

	c.readingMonitor = activity.NewReadingMonitor(c.monitor)
	c.microBreakMonitor = activity.NewTimerMonitor(c.monitor, c.timers[core.MicroBreak])

	if err := c.configure(c.cfg.Get()); err != nil {
		return nil, err
	}
	if policy, err := core.ParseInsistPolicy(c.cfg.Get().General.InsistPolicy); err == nil {
		c.insistPolicy = policy
	}
	c.subs.Add(c.cfg.OnChange(c.onConfigChanged))

	c.LoadState()
	return c, nil
}

// Close saves the state and detaches from every collaborator.
func (c *Control) Close() {
	if err := c.SaveState(); err != nil {
		log.Printf("Warning: failed to save state: %v", err)
	}
	c.subs.CancelAll()
	for _, b := range c.breaks {
		b.Close()
	}
}

func (c *Control) configure(cfg *config.Config) error {
	for _, id := range core.BreakIDs {
		if err := c.breaks[id].Configure(*cfg.Break(id), c.loc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Control) onConfigChanged(cfg *config.Config) {
	if err := c.configure(cfg); err != nil {
		log.Printf("Warning: failed to apply break settings: %v", err)
	}

	policy, err := core.ParseInsistPolicy(cfg.General.InsistPolicy)
	if err != nil || policy == c.insistPolicy {
		return
	}
	if c.activeInsistPolicy != core.InsistInvalid {
		c.SetInsistPolicy(policy)
	} else {
		c.insistPolicy = policy
	}
}

func (c *Control) maxPreludesOf(id core.BreakID) int {
	return c.cfg.Get().Break(id).MaxPreludes
}

// Break returns the break with the given id.
func (c *Control) Break(id core.BreakID) *Break {
	return c.breaks[id]
}

// Timer returns the timer of the given break.
func (c *Control) Timer(id core.BreakID) *timer.Timer {
	return c.timers[id]
}

// Heartbeat runs one tick: timers first, most important break first, then
// every state model.
func (c *Control) Heartbeat() {
	// Overrides change the mode without a signal.
	if mode := c.modes.ActiveOperationMode(); mode != c.mode {
		c.onOperationModeChanged(mode)
	}

	var active bool
	if c.modes.UsageMode() == core.UsageReading {
		active = c.readingMonitor.IsActive()
	} else {
		active = c.monitor.IsActive()
	}

	c.processTimers(active)

	for _, b := range c.breaks {
		b.Process()
	}

	if clock.MonotonicSec(c.clock)%saveStateInterval == 0 {
		c.updateStatistics()
		if err := c.SaveState(); err != nil {
			log.Printf("Warning: failed to save state: %v", err)
		}
	}
}

func (c *Control) processTimers(userActive bool) {
	for _, id := range core.BreakIDsByPrecedence {
		b := c.breaks[id]

		activeForBreak := userActive
		if b.IsMicroBreakUsedForActivity() {
			activeForBreak = c.microBreakMonitor.IsActive()
		}

		event := c.timers[id].Process(activeForBreak)
		if !b.IsEnabled() {
			continue
		}

		switch event {
		case timer.EventLimitReached:
			if !b.IsActive() && c.modes.ActiveOperationMode() == core.OperationNormal {
				c.startBreak(id, false)
			}

		case timer.EventNaturalReset, timer.EventReset:
			if event == timer.EventNaturalReset && !b.IsActive() {
				b.Statistics().NaturalBreakTaken()
			}
			if b.IsActive() {
				b.StopBreak()
			}
			if id == core.DailyLimit {
				c.dailyReset()
			}
		}
	}
}

func (c *Control) dailyReset() {
	c.updateStatistics()
	for _, b := range c.breaks {
		b.DailyReset()
	}
	c.modes.DailyReset()
	if err := c.stats.StartNewDay(); err != nil {
		log.Printf("Warning: failed to start new statistics day: %v", err)
	}
}

func (c *Control) updateStatistics() {
	if err := c.stats.Update(c.monitor.IsActive()); err != nil {
		log.Printf("Warning: failed to update statistics: %v", err)
	}
	for _, b := range c.breaks {
		b.Statistics().Update()
	}
}

// startBreak starts id unless it or a more important break is already
// active. A micro break is replaced by the rest break when that one is
// due shortly after it would end.
func (c *Control) startBreak(id core.BreakID, resumed bool) {
	for bi := id; bi <= core.DailyLimit; bi++ {
		if c.breaks[bi].IsActive() {
			return
		}
	}

	if id == core.RestBreak && !resumed {
		c.breaks[core.RestBreak].Override(core.RestBreak)
	}

	if id == core.MicroBreak && c.breaks[core.RestBreak].IsEnabled() {
		rb := c.timers[core.RestBreak]
		if next := rb.NextLimitTime(); next > 0 {
			now := clock.MonotonicSec(c.clock)
			if now+c.timers[id].AutoReset()+advanceWindow >= next {
				c.breaks[core.RestBreak].Override(core.MicroBreak)
				c.startBreak(core.RestBreak, true)

				// Keep the rest break from reaching its limit again right away.
				rb.Snooze()
				return
			}
		}
	}

	for bi := core.MicroBreak; bi < id; bi++ {
		if c.breaks[bi].IsActive() {
			c.breaks[bi].StopBreak()
		}
	}

	c.breaks[id].StartBreak()
}

// ForceBreak starts a break immediately, without preludes.
func (c *Control) ForceBreak(id core.BreakID, hint core.BreakHint) {
	if id == core.RestBreak && c.breaks[core.MicroBreak].IsActive() {
		c.breaks[core.MicroBreak].StopBreak()
	}
	c.breaks[id].ForceStartBreak(hint)
}

// StopAllBreaks stops every active break.
func (c *Control) StopAllBreaks() {
	for _, b := range c.breaks {
		if b.IsActive() {
			b.StopBreak()
		}
	}
}

// ForceIdle makes the user look idle to every monitor and stops every
// timer.
func (c *Control) ForceIdle() {
	c.monitor.ForceIdle()
	c.microBreakMonitor.ForceIdle()
	c.readingMonitor.ForceIdle()

	for _, t := range c.timers {
		t.Stop()
	}
}

// SetInsistPolicy sets how activity during a break is treated and applies
// it. A policy applied earlier is undone first.
func (c *Control) SetInsistPolicy(p core.InsistPolicy) {
	if c.activeInsistPolicy != core.InsistInvalid && c.insistPolicy != p {
		c.defrost()
	}
	c.insistPolicy = p
	c.freeze()
}

// InsistPolicy returns the configured policy.
func (c *Control) InsistPolicy() core.InsistPolicy {
	return c.insistPolicy
}

// ActiveInsistPolicy returns the policy currently applied, or
// core.InsistInvalid.
func (c *Control) ActiveInsistPolicy() core.InsistPolicy {
	return c.activeInsistPolicy
}

func (c *Control) freeze() {
	policy := c.insistPolicy

	switch policy {
	case core.InsistIgnore:
		// Activity during the break does not count at all.
		c.monitor.Suspend()
	case core.InsistHalt:
		c.setFreezeAllBreaks(true)
	}

	c.activeInsistPolicy = policy
}

func (c *Control) defrost() {
	switch c.activeInsistPolicy {
	case core.InsistIgnore:
		if c.modes.ActiveOperationMode() != core.OperationSuspended {
			c.monitor.Resume()
		}
	case core.InsistHalt:
		c.setFreezeAllBreaks(false)
	}

	c.activeInsistPolicy = core.InsistInvalid
}

func (c *Control) setFreezeAllBreaks(freeze bool) {
	for _, id := range core.BreakIDs {
		if !c.breaks[id].IsMicroBreakUsedForActivity() {
			c.timers[id].Freeze(freeze)
		}
	}
}

func (c *Control) onOperationModeChanged(mode core.OperationMode) {
	c.mode = mode
	if mode == core.OperationSuspended || mode == core.OperationQuiet {
		c.StopAllBreaks()
	}
	if mode == core.OperationSuspended {
		c.readingMonitor.Suspend()
	} else {
		c.readingMonitor.Resume()
	}
}

func (c *Control) onBreakEvent(id core.BreakID, event core.BreakEvent) {
	switch event {
	case core.EventBreakIdle:
		c.defrost()
	case core.EventShowPrelude:
		c.ForceIdle()
	case core.EventShowBreak, core.EventShowBreakForced:
		c.ForceIdle()
		c.freeze()
	}

	if c.modes.UsageMode() == core.UsageReading {
		c.readingMonitor.HandleBreakEvent(id, event)
	}
}
