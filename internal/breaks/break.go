package breaks

import (
	"time"

	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/observer"
	"github.com/siegfried/workrave/internal/timer"
)

// Break bundles the timer, state model and statistics of one break, and
// relays its events to the bridge.
type Break struct {
	id    core.BreakID
	timer *timer.Timer
	model *StateModel
	stats *Statistics

	enabled               bool
	useMicroBreakActivity bool

	subs observer.Subscriptions
}

func newBreak(id core.BreakID, t *timer.Timer, model *StateModel, stats *Statistics, bridge core.Bridge) *Break {
	b := &Break{
		id:      id,
		timer:   t,
		model:   model,
		stats:   stats,
		enabled: true,
	}

	b.subs.Add(model.OnEvent(stats.HandleEvent))
	b.subs.Add(model.OnEvent(func(e core.BreakEvent) { bridge.SignalBreakEvent(id, e) }))
	b.subs.Add(model.OnStageChanged(func(s core.BreakStage) { bridge.SignalBreakStageChanged(id, s) }))
	return b
}

// Configure applies the break settings. A disabled break stops and its
// timer no longer runs.
func (b *Break) Configure(cfg config.BreakConfig, loc *time.Location) error {
	pred, err := timer.ParseDayPredicate(cfg.ResetPred, loc)
	if err != nil {
		return err
	}

	b.timer.SetLimit(cfg.LimitSeconds)
	b.timer.SetAutoReset(cfg.AutoResetSeconds)
	b.timer.SetSnooze(cfg.SnoozeSeconds)
	b.timer.SetDailyReset(pred)
	b.useMicroBreakActivity = b.id == core.DailyLimit && cfg.UseMicroBreakActivity

	b.model.Override(b.id)

	b.enabled = cfg.Enabled
	if cfg.Enabled {
		b.timer.Enable()
	} else {
		if b.model.IsActive() {
			b.model.StopBreak()
		}
		b.timer.Disable()
	}
	return nil
}

// ID returns the break id.
func (b *Break) ID() core.BreakID {
	return b.id
}

// Timer returns the break timer.
func (b *Break) Timer() *timer.Timer {
	return b.timer
}

// Model returns the break stage machine.
func (b *Break) Model() *StateModel {
	return b.model
}

// Statistics returns the counter listener of the break.
func (b *Break) Statistics() *Statistics {
	return b.stats
}

// IsEnabled reports whether the break is configured on.
func (b *Break) IsEnabled() bool {
	return b.enabled
}

// IsMicroBreakUsedForActivity reports whether the timer follows micro-break
// activity rather than raw input.
func (b *Break) IsMicroBreakUsedForActivity() bool {
	return b.useMicroBreakActivity
}

// Process advances the break by one heartbeat.
func (b *Break) Process() {
	b.model.Process()
}

// StartBreak starts the break with a prelude.
func (b *Break) StartBreak() {
	b.model.StartBreak()
}

// ForceStartBreak starts the break without a prelude.
func (b *Break) ForceStartBreak(hint core.BreakHint) {
	b.model.ForceStartBreak(hint)
}

// PostponeBreak ends the break as postponed.
func (b *Break) PostponeBreak() {
	b.model.PostponeBreak()
}

// SkipBreak ends the break as skipped.
func (b *Break) SkipBreak() {
	b.model.SkipBreak()
}

// StopBreak ends the break silently.
func (b *Break) StopBreak() {
	b.model.StopBreak()
}

// Override applies the prelude cap of break id.
func (b *Break) Override(id core.BreakID) {
	b.model.Override(id)
}

// IsActive reports whether the break is in progress.
func (b *Break) IsActive() bool {
	return b.model.IsActive()
}

// IsTaking reports whether the break window is shown.
func (b *Break) IsTaking() bool {
	return b.model.IsTaking()
}

// Stage returns the current stage.
func (b *Break) Stage() core.BreakStage {
	return b.model.Stage()
}

// OnEvent registers fn for this break's events.
func (b *Break) OnEvent(fn func(core.BreakEvent)) *observer.Subscription {
	return b.model.OnEvent(fn)
}

// OnStageChanged registers fn for this break's stage changes.
func (b *Break) OnStageChanged(fn func(core.BreakStage)) *observer.Subscription {
	return b.model.OnStageChanged(fn)
}

// DailyReset clears the per-day accumulators of the break.
func (b *Break) DailyReset() {
	b.timer.DailyReset()
}

// Close detaches the break from the bridge and statistics.
func (b *Break) Close() {
	b.subs.CancelAll()
}
