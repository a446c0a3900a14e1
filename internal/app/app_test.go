package app

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siegfried/workrave/internal/activity"
	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
)

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.General.StateDir = t.TempDir()

	a, err := newApp(opts, deps{
		config: config.NewMemoryManager(cfg),
		clock:  clock.NewManual(time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)),
		idle:   activity.IdleFunc(func() (time.Duration, error) { return time.Hour, nil }),
		bridge: core.NopBridge{},
	})
	require.NoError(t, err)
	a.interval = 10 * time.Millisecond
	return a
}

// start runs a in the background and returns a function that stops it and
// waits for Run to return.
func start(t *testing.T, a *App) func() {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return")
		}
	}
}

// settle waits until every request queued before it has run.
func settle(t *testing.T, a *App) {
	t.Helper()

	done := make(chan struct{})
	a.Do(func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request was not served")
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestMonitorParamsFromConfig(t *testing.T) {
	params := monitorParams(config.DefaultConfig().Monitor)

	assert.Equal(t, activity.DefaultParams(), params)
}

func TestMonitorParamsConvertsMilliseconds(t *testing.T) {
	params := monitorParams(config.MonitorConfig{NoiseMs: 1500, ActivityMs: 250, IdleMs: 60000, Sensitivity: 7})

	assert.Equal(t, 1500*time.Millisecond, params.Noise)
	assert.Equal(t, 250*time.Millisecond, params.Activity)
	assert.Equal(t, time.Minute, params.Idle)
	assert.Equal(t, 7, params.Sensitivity)
}

func TestRequestsRunInOrderOnTheHeartbeatLoop(t *testing.T) {
	a := newTestApp(t, Options{})
	stop := start(t, a)

	a.SetOperationMode(core.OperationSuspended)
	settle(t, a)
	assert.Equal(t, core.OperationSuspended, a.modes.ActiveOperationMode())

	a.SetOperationMode(core.OperationNormal)
	a.ForceBreak(core.RestBreak)
	settle(t, a)
	assert.Equal(t, core.OperationNormal, a.modes.ActiveOperationMode())
	assert.True(t, a.control.Break(core.RestBreak).IsActive())

	stop()
	a.Shutdown()
}

func TestStatusLineEveryStatusInterval(t *testing.T) {
	a := newTestApp(t, Options{})
	buf := captureLog(t)

	for i := 0; i < statusInterval-1; i++ {
		a.heartbeat()
	}
	assert.NotContains(t, buf.String(), "micro pause in")

	a.heartbeat()
	assert.Contains(t, buf.String(), "normal | micro pause in")

	a.Shutdown()
}

func TestQuietOptionLastsUntilShutdown(t *testing.T) {
	a := newTestApp(t, Options{Quiet: true})
	stateDir := a.configManager.StateDir()

	assert.Equal(t, core.OperationQuiet, a.modes.ActiveOperationMode())
	assert.True(t, a.modes.IsOperationModeAnOverride())
	assert.Equal(t, "normal", a.configManager.Get().General.OperationMode, "the override is not persisted")

	a.Shutdown()

	assert.False(t, a.modes.IsOperationModeAnOverride())
	assert.FileExists(t, filepath.Join(stateDir, "state"))
}

func TestReadingOptionPersistsUsageMode(t *testing.T) {
	a := newTestApp(t, Options{Reading: true})

	assert.Equal(t, core.UsageReading, a.modes.UsageMode())
	assert.Equal(t, "reading", a.configManager.Get().General.UsageMode)

	a.Shutdown()
}
