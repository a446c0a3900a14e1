package breaks

import (
	"fmt"

	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/observer"
)

type fakeApp struct {
	calls         []string
	progress      int
	progressMax   int
	preludeStages []core.PreludeStage
	windowShown   bool
}

func (a *fakeApp) CreatePreludeWindow(id core.BreakID) {
	a.calls = append(a.calls, "prelude:"+id.String())
}

func (a *fakeApp) CreateBreakWindow(id core.BreakID, hint core.BreakHint) {
	a.calls = append(a.calls, fmt.Sprintf("break:%s:%d", id, hint))
}

func (a *fakeApp) ShowBreakWindow() { a.windowShown = true }
func (a *fakeApp) HideBreakWindow() { a.windowShown = false }
func (a *fakeApp) RefreshBreakWindow() {}

func (a *fakeApp) SetBreakProgress(value, max int) {
	a.progress, a.progressMax = value, max
}

func (a *fakeApp) SetPreludeStage(stage core.PreludeStage) {
	a.preludeStages = append(a.preludeStages, stage)
}

func (a *fakeApp) SetPreludeProgressText(core.PreludeProgressText) {}

// fakeMonitor counts one mark per input call.
type fakeMonitor struct {
	active    bool
	suspended bool
	mark      uint64

	forceIdleCalls int
	suspendCalls   int
	resumeCalls    int
}

func (m *fakeMonitor) IsActive() bool { return m.active && !m.suspended }
func (m *fakeMonitor) Mark() uint64 { return m.mark }

func (m *fakeMonitor) Suspend() {
	m.suspended = true
	m.suspendCalls++
}

func (m *fakeMonitor) Resume() {
	m.suspended = false
	m.resumeCalls++
}

func (m *fakeMonitor) ForceIdle() {
	m.active = false
	m.forceIdleCalls++
}

func (m *fakeMonitor) input() {
	m.active = true
	m.mark++
}

type fakeModes struct {
	mode        core.OperationMode
	usage       core.UsageMode
	dailyResets int
	changed     observer.Signal[core.OperationMode]
}

func (m *fakeModes) ActiveOperationMode() core.OperationMode { return m.mode }
func (m *fakeModes) UsageMode() core.UsageMode { return m.usage }
func (m *fakeModes) DailyReset() { m.dailyResets++ }

func (m *fakeModes) OnOperationModeChanged(fn func(core.OperationMode)) *observer.Subscription {
	return m.changed.Connect(fn)
}

func (m *fakeModes) set(mode core.OperationMode) {
	m.mode = mode
	m.changed.Emit(mode)
}

type counterKey struct {
	id      core.BreakID
	counter core.BreakCounter
}

type fakeStats struct {
	counters  map[counterKey]int64
	values    map[core.Counter]int64
	newDays   int
	updates   int
	failWrite error
}

func newFakeStats() *fakeStats {
	return &fakeStats{counters: map[counterKey]int64{}, values: map[core.Counter]int64{}}
}

func (s *fakeStats) IncrementBreakCounter(id core.BreakID, counter core.BreakCounter) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.counters[counterKey{id, counter}]++
	return nil
}

func (s *fakeStats) SetBreakCounter(id core.BreakID, counter core.BreakCounter, value int64) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.counters[counterKey{id, counter}] = value
	return nil
}

func (s *fakeStats) SetCounter(counter core.Counter, value int64) error {
	s.values[counter] = value
	return nil
}

func (s *fakeStats) StartNewDay() error {
	s.newDays++
	return nil
}

func (s *fakeStats) Update(bool) error {
	s.updates++
	return nil
}

func (s *fakeStats) count(id core.BreakID, counter core.BreakCounter) int64 {
	return s.counters[counterKey{id, counter}]
}

type bridgeEvent struct {
	id    core.BreakID
	event core.BreakEvent
}

type fakeBridge struct {
	core.NopBridge
	events []bridgeEvent
	stages []core.BreakStage
}

func (b *fakeBridge) SignalBreakEvent(id core.BreakID, event core.BreakEvent) {
	b.events = append(b.events, bridgeEvent{id, event})
}

func (b *fakeBridge) SignalBreakStageChanged(_ core.BreakID, stage core.BreakStage) {
	b.stages = append(b.stages, stage)
}
