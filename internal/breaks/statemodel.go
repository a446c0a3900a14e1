package breaks

import (
	"github.com/siegfried/workrave/internal/activity"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/observer"
	"github.com/siegfried/workrave/internal/timer"
)

// Prelude timing, in heartbeats since the prelude window appeared.
const (
	preludeMoveOutTime = 4
	preludeWarnTime    = 10
	preludeMinIdleTime = 10
	preludeAlertTime   = 20
	preludeMaxTime     = 30
	preludeProgressMax = 29
	delayedSnoozeTime  = 35
	defaultMaxPreludes = 2
)

// MaxPreludesFunc returns the configured prelude cap of a break; -1 means
// unlimited.
type MaxPreludesFunc func(id core.BreakID) int

// StateModel drives one break through its stages: prelude, delay, taking
// and back. It owns no timers; the timer is shared with Control.
type StateModel struct {
	id          core.BreakID
	app         core.App
	timer       *timer.Timer
	monitor     activity.Monitor
	maxPreludes MaxPreludesFunc

	stage        core.BreakStage
	preludeTime  int
	preludeCount int
	maxNumber    int
	forced       bool
	fake         bool
	fakeCount    int64
	userAbort    bool
	delayedAbort bool
	delayedMark  uint64
	hint         core.BreakHint

	events       observer.Signal[core.BreakEvent]
	stageChanged observer.Signal[core.BreakStage]
}

// NewStateModel creates an idle state model.
func NewStateModel(id core.BreakID, app core.App, t *timer.Timer, monitor activity.Monitor, maxPreludes MaxPreludesFunc) *StateModel {
	return &StateModel{
		id:          id,
		app:         app,
		timer:       t,
		monitor:     monitor,
		maxPreludes: maxPreludes,
		stage:       core.StageNone,
		maxNumber:   defaultMaxPreludes,
	}
}

// OnEvent registers fn for break events.
func (m *StateModel) OnEvent(fn func(core.BreakEvent)) *observer.Subscription {
	return m.events.Connect(fn)
}

// OnStageChanged registers fn for stage changes.
func (m *StateModel) OnStageChanged(fn func(core.BreakStage)) *observer.Subscription {
	return m.stageChanged.Connect(fn)
}

// Process advances the model by one heartbeat.
func (m *StateModel) Process() {
	m.preludeTime++
	active := m.monitor.IsActive()

	switch m.stage {
	case core.StageDelayed:
		if m.monitor.Mark() != m.delayedMark {
			m.delayedAbort = true
		}
		if m.preludeTime > delayedSnoozeTime || m.delayedAbort {
			m.gotoStage(core.StageSnoozed)
		} else if !active {
			m.gotoStage(core.StageTaking)
		}

	case core.StagePrelude:
		m.preludeWindowUpdate()
		m.app.RefreshBreakWindow()

		switch {
		case !active:
			if m.preludeTime >= preludeMinIdleTime {
				m.gotoStage(core.StageTaking)
			}
		case m.preludeTime >= preludeMaxTime:
			if m.HasReachedMaxPreludes() {
				m.gotoStage(core.StageTaking)
			} else {
				m.gotoStage(core.StageDelayed)
			}
		case m.preludeTime == preludeAlertTime:
			m.app.SetPreludeStage(core.PreludeAlert)
			m.app.RefreshBreakWindow()
		case m.preludeTime == preludeWarnTime:
			m.app.SetPreludeStage(core.PreludeWarn)
			m.app.RefreshBreakWindow()
		}

		if m.preludeTime == preludeMoveOutTime {
			m.app.SetPreludeStage(core.PreludeMoveOut)
		}

	case core.StageTaking:
		m.breakWindowUpdate()
		m.app.RefreshBreakWindow()
	}
}

// StartBreak starts the break with a prelude, or directly once the
// prelude cap has been reached.
func (m *StateModel) StartBreak() {
	m.hint = core.HintNormal
	m.forced = false
	m.fake = false
	m.preludeTime = 0
	m.userAbort = false
	m.delayedAbort = false

	if m.HasReachedMaxPreludes() {
		m.gotoStage(core.StageTaking)
	} else {
		m.gotoStage(core.StagePrelude)
	}
}

// ForceStartBreak starts the break without preludes. When the user has
// already been idle for the full break, the break window counts down on
// its own.
func (m *StateModel) ForceStartBreak(hint core.BreakHint) {
	m.hint = hint
	m.forced = hint.Has(core.HintUserInitiated) || hint.Has(core.HintNaturalBreak)
	m.fake = false
	m.preludeTime = 0
	m.userAbort = false
	m.delayedAbort = false

	if m.timer.IsAutoResetEnabled() {
		if m.timer.ElapsedIdleTime() >= m.timer.AutoReset() || !m.timer.IsEnabled() {
			m.fake = true
			m.fakeCount = m.timer.AutoReset()
		}
	}

	m.gotoStage(core.StageTaking)
}

// PostponeBreak snoozes a break that is being taken. Ignored in any other
// stage.
func (m *StateModel) PostponeBreak() {
	if m.stage != core.StageTaking {
		return
	}
	m.userAbort = true

	if !m.forced {
		if !m.fake {
			m.timer.Snooze()
		}
		m.events.Emit(core.EventBreakPostponed)
	}

	m.StopBreak()
}

// SkipBreak ends a break that is being taken as if it was taken. The daily
// limit is silenced instead. Ignored in any other stage.
func (m *StateModel) SkipBreak() {
	if m.stage != core.StageTaking {
		return
	}
	m.userAbort = true

	if m.id == core.DailyLimit {
		m.timer.InhibitSnooze()
	} else {
		m.timer.Reset()
	}

	m.events.Emit(core.EventBreakSkipped)
	m.StopBreak()
}

// StopBreak ends the break and forgets its preludes.
func (m *StateModel) StopBreak() {
	m.hint = core.HintNormal
	m.gotoStage(core.StageNone)
	m.preludeCount = 0
	m.fake = false

	m.events.Emit(core.EventBreakStop)
}

// Override sets the prelude cap to this break's own cap, lowered to the
// cap of id when that one is smaller and limited.
func (m *StateModel) Override(id core.BreakID) {
	limit := m.maxPreludes(m.id)
	if id != m.id {
		if other := m.maxPreludes(id); other != -1 && other < limit {
			limit = other
		}
	}
	m.maxNumber = limit
}

// SetMaxPreludes sets the prelude cap directly.
func (m *StateModel) SetMaxPreludes(n int) {
	m.maxNumber = n
}

// MaxPreludes returns the current prelude cap.
func (m *StateModel) MaxPreludes() int {
	return m.maxNumber
}

// HasReachedMaxPreludes reports whether the next start skips the prelude.
func (m *StateModel) HasReachedMaxPreludes() bool {
	return m.maxNumber >= 0 && m.preludeCount >= m.maxNumber
}

// IsTaking reports whether the break is being taken.
func (m *StateModel) IsTaking() bool {
	return m.stage == core.StageTaking
}

// IsActive reports whether the break occupies the user: any stage except
// none and snoozed.
func (m *StateModel) IsActive() bool {
	return m.stage != core.StageNone && m.stage != core.StageSnoozed
}

// Stage returns the current stage.
func (m *StateModel) Stage() core.BreakStage {
	return m.stage
}

// PreludeCount returns the number of preludes shown for this break.
func (m *StateModel) PreludeCount() int {
	return m.preludeCount
}

// PreludeTime returns the seconds spent in the current prelude.
func (m *StateModel) PreludeTime() int {
	return m.preludeTime
}

// FakeBreakCount returns the remaining countdown of a self-timed break.
func (m *StateModel) FakeBreakCount() (int64, bool) {
	return m.fakeCount, m.fake
}

func (m *StateModel) gotoStage(stage core.BreakStage) {
	switch stage {
	case core.StageDelayed:
		m.delayedMark = m.monitor.Mark()

	case core.StageNone:
		if m.stage == core.StagePrelude {
			m.preludeWindowStop()
		} else if m.stage == core.StageTaking {
			m.breakWindowStop()
		}

	case core.StageSnoozed:
		m.preludeWindowStop()

	case core.StagePrelude:
		m.preludeWindowStart()

	case core.StageTaking:
		m.breakWindowStart()
	}

	m.stage = stage
	m.stageChanged.Emit(stage)
}

func (m *StateModel) breakWindowStart() {
	m.app.HideBreakWindow()
	m.app.CreateBreakWindow(m.id, m.hint)
	m.breakWindowUpdate()
	m.app.ShowBreakWindow()
	m.app.RefreshBreakWindow()

	if m.forced {
		m.events.Emit(core.EventShowBreakForced)
	} else {
		m.events.Emit(core.EventShowBreak)
	}
}

func (m *StateModel) breakWindowUpdate() {
	duration := m.timer.AutoReset()
	var idle int64

	if m.fake {
		idle = duration - m.fakeCount
		if m.fakeCount <= 0 {
			m.StopBreak()
		}
		m.fakeCount--
	} else {
		idle = m.timer.ElapsedIdleTime()
	}

	if idle > duration {
		idle = duration
	}
	m.app.SetBreakProgress(int(idle), int(duration))
}

func (m *StateModel) breakWindowStop() {
	m.app.HideBreakWindow()

	if !m.fake {
		// Taken only when the user stayed away for the whole break.
		if m.timer.ElapsedIdleTime() >= m.timer.AutoReset() && !m.userAbort {
			m.events.Emit(core.EventBreakTaken)
		}
	}
	m.events.Emit(core.EventBreakIdle)
}

func (m *StateModel) preludeWindowStart() {
	m.preludeCount++
	m.preludeTime = 0

	m.app.HideBreakWindow()
	m.app.CreatePreludeWindow(m.id)
	m.app.SetPreludeStage(core.PreludeInitial)

	if !m.HasReachedMaxPreludes() {
		m.app.SetPreludeProgressText(core.ProgressDisappearsIn)
	} else {
		m.app.SetPreludeProgressText(core.ProgressBreakIn)
	}

	m.preludeWindowUpdate()

	m.app.ShowBreakWindow()
	m.app.RefreshBreakWindow()

	if m.preludeCount == 1 {
		m.events.Emit(core.EventBreakStart)
	}
	m.events.Emit(core.EventShowPrelude)
}

func (m *StateModel) preludeWindowUpdate() {
	m.app.SetBreakProgress(m.preludeTime, preludeProgressMax)
}

func (m *StateModel) preludeWindowStop() {
	m.app.HideBreakWindow()
	if !m.forced {
		m.events.Emit(core.EventBreakIgnored)
	}
	m.events.Emit(core.EventBreakIdle)
}
