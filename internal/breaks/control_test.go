package breaks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
)

type controlFixture struct {
	clk     *clock.Manual
	monitor *fakeMonitor
	app     *fakeApp
	modes   *fakeModes
	stats   *fakeStats
	bridge  *fakeBridge
	cfg     *config.Manager
	dir     string
	control *Control
}

func newControlFixture(t *testing.T, mutate func(*config.Config)) *controlFixture {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	f := &controlFixture{
		clk:     clock.NewManual(epoch),
		monitor: &fakeMonitor{},
		app:     &fakeApp{},
		modes:   &fakeModes{},
		stats:   newFakeStats(),
		bridge:  &fakeBridge{},
		cfg:     config.NewMemoryManager(cfg),
		dir:     t.TempDir(),
	}
	f.control = f.newControl(t)
	return f
}

func (f *controlFixture) newControl(t *testing.T) *Control {
	t.Helper()

	c, err := NewControl(Options{
		App:        f.app,
		Monitor:    f.monitor,
		Modes:      f.modes,
		Statistics: f.stats,
		Bridge:     f.bridge,
		Config:     f.cfg,
		Clock:      f.clk,
		StateDir:   f.dir,
		Location:   time.UTC,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func (f *controlFixture) tick(active bool) {
	if active {
		f.monitor.input()
	} else {
		f.monitor.active = false
	}
	f.clk.Advance(time.Second)
	f.control.Heartbeat()
}

func (f *controlFixture) stage(id core.BreakID) core.BreakStage {
	return f.control.Break(id).Stage()
}

func (f *controlFixture) activeBreaks() []core.BreakID {
	var ids []core.BreakID
	for _, id := range core.BreakIDs {
		if f.control.Break(id).IsActive() {
			ids = append(ids, id)
		}
	}
	return ids
}

func setBreak(cfg *config.Config, id core.BreakID, limit, autoReset int64, maxPreludes int) {
	b := cfg.Break(id)
	b.LimitSeconds = limit
	b.AutoResetSeconds = autoReset
	b.MaxPreludes = maxPreludes
}

func TestHeartbeatStartsBreakAtLimit(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 3)
	})

	for i := 0; i < 10; i++ {
		f.tick(true)
	}
	require.Equal(t, core.StageNone, f.stage(core.MicroBreak))

	f.tick(true)

	assert.Equal(t, core.StagePrelude, f.stage(core.MicroBreak))
	assert.Equal(t, core.StageNone, f.stage(core.RestBreak))
	assert.Equal(t, int64(1), f.stats.count(core.MicroBreak, core.CounterUniqueBreaks))
	assert.Equal(t, int64(1), f.stats.count(core.MicroBreak, core.CounterPrompted))
	assert.Positive(t, f.monitor.forceIdleCalls)
	assert.Contains(t, f.app.calls, "prelude:micro_pause")
	assert.Contains(t, f.bridge.events, bridgeEvent{core.MicroBreak, core.EventShowPrelude})
}

func TestBreaksOnlyStartInNormalMode(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 3)
	})
	f.modes.mode = core.OperationQuiet

	for i := 0; i < 30; i++ {
		f.tick(true)
	}

	assert.Equal(t, core.StageNone, f.stage(core.MicroBreak))
}

func TestSuspendedModeStopsBreaks(t *testing.T) {
	f := newControlFixture(t, nil)
	f.control.ForceBreak(core.RestBreak, core.HintUserInitiated)
	require.True(t, f.control.Break(core.RestBreak).IsActive())

	f.modes.set(core.OperationSuspended)

	assert.Empty(t, f.activeBreaks())
	f.monitor.input()
	assert.False(t, f.control.readingMonitor.IsActive())

	f.modes.set(core.OperationNormal)
	assert.True(t, f.control.readingMonitor.IsActive())
}

func TestSilentModeChangeStopsBreaksOnHeartbeat(t *testing.T) {
	f := newControlFixture(t, nil)
	f.control.ForceBreak(core.RestBreak, core.HintUserInitiated)
	require.True(t, f.control.Break(core.RestBreak).IsActive())

	f.modes.mode = core.OperationQuiet
	f.tick(false)

	assert.Empty(t, f.activeBreaks())
}

func TestAtMostOneBreakActive(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 1)
		setBreak(cfg, core.RestBreak, 15, 8, 1)
		setBreak(cfg, core.DailyLimit, 20, 0, 1)
		for _, id := range core.BreakIDs {
			cfg.Break(id).SnoozeSeconds = 5
		}
	})

	started := map[core.BreakID]bool{}
	for i := 0; i < 400; i++ {
		f.tick(i%23 < 18)

		active := f.activeBreaks()
		require.LessOrEqual(t, len(active), 1, "tick %d: %v", i, active)
		for _, id := range active {
			started[id] = true
		}
	}

	assert.NotEmpty(t, started)
}

func TestLowerBreakCannotStartOverHigherOne(t *testing.T) {
	f := newControlFixture(t, nil)
	f.control.ForceBreak(core.RestBreak, core.HintNormal)
	require.Equal(t, core.StageTaking, f.stage(core.RestBreak))
	events := len(f.bridge.events)

	f.control.startBreak(core.MicroBreak, false)

	assert.Equal(t, core.StageNone, f.stage(core.MicroBreak))
	assert.Equal(t, core.StageTaking, f.stage(core.RestBreak))
	assert.Len(t, f.bridge.events, events)

	f.control.startBreak(core.DailyLimit, false)

	assert.Equal(t, core.StageNone, f.stage(core.RestBreak))
	assert.True(t, f.control.Break(core.DailyLimit).IsActive())
}

func TestMicroBreakAdvancesToRestBreak(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 1)
		setBreak(cfg, core.RestBreak, 40, 20, 3)
	})

	for i := 0; i < 11; i++ {
		f.tick(true)
	}

	assert.Equal(t, core.StageNone, f.stage(core.MicroBreak))
	assert.Equal(t, core.StagePrelude, f.stage(core.RestBreak))
	assert.Equal(t, 1, f.control.Break(core.RestBreak).Model().MaxPreludes())
	assert.Zero(t, f.stats.count(core.MicroBreak, core.CounterUniqueBreaks))
	assert.Equal(t, int64(1), f.stats.count(core.RestBreak, core.CounterUniqueBreaks))

	rest := f.control.Timer(core.RestBreak)
	assert.NotZero(t, rest.ElapsedAtLastLimit())
	assert.Equal(t, rest.ElapsedTime(), rest.ElapsedAtLastLimit(), "rest timer is snoozed on advancement")
}

func TestMicroBreakStartsWhenRestBreakIsFar(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 1)
		setBreak(cfg, core.RestBreak, 100, 20, 3)
	})

	for i := 0; i < 11; i++ {
		f.tick(true)
	}

	assert.Equal(t, core.StagePrelude, f.stage(core.MicroBreak))
	assert.Equal(t, core.StageNone, f.stage(core.RestBreak))
	assert.Equal(t, 3, f.control.Break(core.RestBreak).Model().MaxPreludes())
}

func TestRestBreakStartRestoresOwnPreludeCap(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 1)
		setBreak(cfg, core.RestBreak, 40, 20, 3)
	})
	rest := f.control.Break(core.RestBreak)
	rest.Override(core.MicroBreak)
	require.Equal(t, 1, rest.Model().MaxPreludes())

	f.control.startBreak(core.RestBreak, false)

	assert.Equal(t, 3, rest.Model().MaxPreludes())
}

func TestNaturalResetCountsNaturalBreak(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		setBreak(cfg, core.MicroBreak, 10, 5, 3)
	})

	for i := 0; i < 3; i++ {
		f.tick(true)
	}
	for i := 0; i < 6; i++ {
		f.tick(false)
	}

	assert.Equal(t, int64(1), f.stats.count(core.MicroBreak, core.CounterNaturalTaken))
	assert.Zero(t, f.control.Timer(core.MicroBreak).ElapsedTime())
}

func TestDailyLimitResetStartsNewDay(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		cfg.Break(core.DailyLimit).ResetPred = "day/9:01"
	})

	for i := 0; i < 59; i++ {
		f.tick(true)
	}
	require.Zero(t, f.stats.newDays)

	f.tick(true)

	assert.Equal(t, 1, f.stats.newDays)
	assert.Equal(t, 1, f.modes.dailyResets)
	assert.Zero(t, f.control.Timer(core.DailyLimit).ElapsedTime())
}

func TestStatisticsFlushedEveryMinute(t *testing.T) {
	f := newControlFixture(t, nil)

	for i := 0; i < 19; i++ {
		f.tick(true)
	}
	require.Zero(t, f.stats.updates)

	f.tick(true)

	assert.Equal(t, 1, f.stats.updates)
	assert.Equal(t, int64(19), f.stats.values[core.ValueTotalActiveTime])
	assert.FileExists(t, f.control.StatePath())
}

func TestInsistPolicySwitchMidBreak(t *testing.T) {
	f := newControlFixture(t, nil)

	f.control.SetInsistPolicy(core.InsistHalt)
	f.control.ForceBreak(core.MicroBreak, core.HintUserInitiated)
	require.Equal(t, core.InsistHalt, f.control.ActiveInsistPolicy())
	for _, id := range core.BreakIDs {
		require.True(t, f.control.Timer(id).IsFrozen(), id.String())
	}

	f.control.SetInsistPolicy(core.InsistIgnore)

	for _, id := range core.BreakIDs {
		assert.False(t, f.control.Timer(id).IsFrozen(), id.String())
	}
	assert.Equal(t, core.InsistIgnore, f.control.ActiveInsistPolicy())
	assert.Equal(t, 1, f.monitor.suspendCalls)
	assert.Zero(t, f.monitor.resumeCalls)

	f.control.StopAllBreaks()

	assert.Equal(t, core.InsistInvalid, f.control.ActiveInsistPolicy())
	assert.Equal(t, 1, f.monitor.resumeCalls)
	assert.False(t, f.monitor.suspended)
}

func TestInsistPolicySwitchFromIgnoreToHalt(t *testing.T) {
	f := newControlFixture(t, nil)

	f.control.SetInsistPolicy(core.InsistIgnore)
	f.control.ForceBreak(core.RestBreak, core.HintUserInitiated)
	require.True(t, f.monitor.suspended)

	f.control.SetInsistPolicy(core.InsistHalt)

	assert.False(t, f.monitor.suspended)
	assert.Equal(t, 1, f.monitor.resumeCalls)
	assert.True(t, f.control.Timer(core.RestBreak).IsFrozen())

	f.control.StopAllBreaks()
	assert.False(t, f.control.Timer(core.RestBreak).IsFrozen())
}

func TestDefrostKeepsMonitorSuspendedInSuspendedMode(t *testing.T) {
	f := newControlFixture(t, nil)

	f.control.SetInsistPolicy(core.InsistIgnore)
	f.control.ForceBreak(core.MicroBreak, core.HintUserInitiated)
	f.modes.mode = core.OperationSuspended
	f.control.StopAllBreaks()

	assert.Zero(t, f.monitor.resumeCalls)
	assert.True(t, f.monitor.suspended)
}

func TestDailyLimitOnMicroBreakActivityIsNotFrozen(t *testing.T) {
	f := newControlFixture(t, func(cfg *config.Config) {
		cfg.Break(core.DailyLimit).UseMicroBreakActivity = true
	})

	f.control.SetInsistPolicy(core.InsistHalt)

	assert.True(t, f.control.Timer(core.MicroBreak).IsFrozen())
	assert.False(t, f.control.Timer(core.DailyLimit).IsFrozen())
}

func TestForceRestBreakStopsMicroBreak(t *testing.T) {
	f := newControlFixture(t, nil)

	f.control.ForceBreak(core.MicroBreak, core.HintUserInitiated)
	require.Equal(t, core.StageTaking, f.stage(core.MicroBreak))

	f.control.ForceBreak(core.RestBreak, core.HintUserInitiated)

	assert.Equal(t, core.StageNone, f.stage(core.MicroBreak))
	assert.Equal(t, core.StageTaking, f.stage(core.RestBreak))
	assert.Contains(t, f.bridge.events, bridgeEvent{core.RestBreak, core.EventShowBreakForced})
	assert.Contains(t, f.bridge.events, bridgeEvent{core.MicroBreak, core.EventBreakStop})
}

func TestForceIdleStopsTimers(t *testing.T) {
	f := newControlFixture(t, nil)
	for i := 0; i < 5; i++ {
		f.tick(true)
	}
	require.True(t, f.control.Timer(core.MicroBreak).IsRunning())

	f.control.ForceIdle()

	for _, id := range core.BreakIDs {
		assert.False(t, f.control.Timer(id).IsRunning(), id.String())
	}
	assert.False(t, f.monitor.IsActive())
}

func TestReadingModeKeepsUserActive(t *testing.T) {
	f := newControlFixture(t, nil)
	f.modes.usage = core.UsageReading

	f.tick(true)
	for i := 0; i < 10; i++ {
		f.tick(false)
	}

	assert.True(t, f.control.Timer(core.MicroBreak).IsRunning())
	assert.Equal(t, int64(10), f.control.Timer(core.MicroBreak).ElapsedTime())
}

func TestConfigChangeDisablesBreak(t *testing.T) {
	f := newControlFixture(t, nil)
	f.control.ForceBreak(core.MicroBreak, core.HintUserInitiated)

	cfg := *f.cfg.Get()
	cfg.Breaks.MicroPause.Enabled = false
	require.NoError(t, f.cfg.Update(&cfg))

	micro := f.control.Break(core.MicroBreak)
	assert.False(t, micro.IsEnabled())
	assert.False(t, micro.IsActive())
	assert.False(t, micro.Timer().IsEnabled())

	for i := 0; i < 5; i++ {
		f.tick(true)
	}
	assert.Zero(t, micro.Timer().ElapsedTime())
}

func TestConfigChangeUpdatesLimits(t *testing.T) {
	f := newControlFixture(t, nil)

	cfg := *f.cfg.Get()
	cfg.Breaks.RestBreak.LimitSeconds = 1800
	cfg.Breaks.RestBreak.MaxPreludes = -1
	require.NoError(t, f.cfg.Update(&cfg))

	rest := f.control.Break(core.RestBreak)
	assert.Equal(t, int64(1800), rest.Timer().Limit())
	assert.Equal(t, -1, rest.Model().MaxPreludes())
}
