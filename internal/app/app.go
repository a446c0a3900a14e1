package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/siegfried/workrave/internal/activity"
	"github.com/siegfried/workrave/internal/breaks"
	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/dbus"
	"github.com/siegfried/workrave/internal/modes"
	"github.com/siegfried/workrave/internal/observer"
	"github.com/siegfried/workrave/internal/stats"
	"github.com/siegfried/workrave/internal/ui"
)

const (
	heartbeatInterval = time.Second
	// statusInterval is the number of heartbeats between status lines.
	statusInterval = 300
)

// Options selects the startup behaviour.
type Options struct {
	// ConfigPath is the config file; empty selects the user config dir.
	ConfigPath string
	// Quiet suppresses breaks until the application exits.
	Quiet bool
	// Reading switches to reading mode.
	Reading bool
}

// App is the main application coordinator
type App struct {
	configManager *config.Manager
	clock         clock.Source
	monitor       *activity.LocalMonitor
	idleSource    activity.IdleSource
	poller        *activity.Poller
	statsStore    *stats.Store
	bridge        core.Bridge
	modes         *modes.CoreModes
	console       *ui.Console
	status        *ui.Status
	control       *breaks.Control

	interval time.Duration
	quietID  string
	requests chan func()
	ticks    int
	subs     observer.Subscriptions
}

// deps are the outside world the application runs against.
type deps struct {
	config *config.Manager
	clock  clock.Source
	idle   activity.IdleSource
	bridge core.Bridge
}

// New creates a new application instance
func New(opts Options) (*App, error) {
	configManager, err := config.NewManager(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	configManager.ApplyEnv()

	return newApp(opts, deps{
		config: configManager,
		clock:  clock.NewSystem(),
		idle:   activity.NewIdleSource(),
		bridge: dbus.ConnectOrNop(),
	})
}

func newApp(opts Options, d deps) (*App, error) {
	app := &App{
		configManager: d.config,
		clock:         d.clock,
		idleSource:    d.idle,
		bridge:        d.bridge,
		interval:      heartbeatInterval,
		requests:      make(chan func(), 16),
	}

	configManager := d.config
	cfg := configManager.Get()

	stateDir := configManager.StateDir()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	statsStore, err := stats.NewStore(stateDir, app.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats store: %w", err)
	}
	app.statsStore = statsStore

	// Activity: OS idle time feeds the local monitor
	app.monitor = activity.NewLocalMonitor(app.clock, monitorParams(cfg.Monitor))
	app.poller = activity.NewPoller(app.idleSource, app.monitor, cfg.PollInterval())

	app.modes = modes.New(configManager, app.monitor, app.clock)
	app.console = ui.NewConsole(nil)

	control, err := breaks.NewControl(breaks.Options{
		App:        app.console,
		Monitor:    app.monitor,
		Modes:      app.modes,
		Statistics: statsStore,
		Bridge:     app.bridge,
		Config:     configManager,
		Clock:      app.clock,
		StateDir:   stateDir,
	})
	if err != nil {
		app.modes.Close()
		statsStore.Close()
		return nil, fmt.Errorf("failed to create breaks: %w", err)
	}
	app.control = control

	app.status = ui.NewStatus(func(id core.BreakID) ui.BreakView {
		return control.Break(id)
	}, app.modes, statsStore)

	app.setupCallbacks()

	if opts.Reading {
		app.modes.SetUsageMode(core.UsageReading)
	}
	if opts.Quiet {
		app.quietID = modes.NewOverrideID()
		app.modes.SetOperationModeOverride(core.OperationQuiet, app.quietID)
		log.Println("Breaks are quiet until exit")
	}

	return app, nil
}

// Run starts the application and runs the heartbeat until ctx is done
func (a *App) Run(ctx context.Context) error {
	a.poller.Start()

	log.Println("Application started successfully")
	log.Println(a.status.Line())

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-a.requests:
			fn()
		case <-ticker.C:
			a.heartbeat()
		}
	}
}

// Do runs fn on the heartbeat goroutine. It must only be called while Run
// is active.
func (a *App) Do(fn func()) {
	a.requests <- fn
}

// ForceBreak starts a break on behalf of the user.
func (a *App) ForceBreak(id core.BreakID) {
	a.Do(func() {
		log.Printf("User requested a %s", id)
		a.control.ForceBreak(id, core.HintUserInitiated)
	})
}

// SetOperationMode changes the regular operation mode.
func (a *App) SetOperationMode(mode core.OperationMode) {
	a.Do(func() {
		a.modes.SetOperationMode(mode)
	})
}

func (a *App) heartbeat() {
	a.modes.Heartbeat()
	a.control.Heartbeat()

	a.ticks++
	if a.ticks%statusInterval == 0 {
		log.Println(a.status.Line())
	}
}

// Shutdown performs cleanup before exit. Run must have returned.
func (a *App) Shutdown() {
	log.Println("Shutting down application...")

	// Stop activity monitoring
	a.poller.Stop()

	if a.quietID != "" {
		a.modes.RemoveOperationModeOverride(a.quietID)
	}

	// Saves the timer state
	a.control.Close()
	a.modes.Close()
	a.subs.CancelAll()

	if err := a.statsStore.Update(a.monitor.IsActive()); err != nil {
		log.Printf("Warning: failed to flush statistics: %v", err)
	}
	log.Println(a.status.Summary("today"))

	// Close stats store
	if err := a.statsStore.Close(); err != nil {
		log.Printf("Warning: failed to close stats store: %v", err)
	}

	for _, c := range []any{a.bridge, a.idleSource} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Printf("Warning: failed to close %T: %v", c, err)
			}
		}
	}

	log.Println("Shutdown complete")
}

// setupCallbacks connects mode and config changes to their consumers
func (a *App) setupCallbacks() {
	a.subs.Add(a.modes.OnOperationModeChanged(func(mode core.OperationMode) {
		log.Printf("Operation mode changed to: %s", mode)
		a.bridge.SignalOperationModeChanged(mode)
	}))

	a.subs.Add(a.modes.OnUsageModeChanged(func(mode core.UsageMode) {
		log.Printf("Usage mode changed to: %s", mode)
		a.bridge.SignalUsageModeChanged(mode)
	}))

	a.subs.Add(a.configManager.OnChange(func(cfg *config.Config) {
		a.monitor.SetParams(monitorParams(cfg.Monitor))
	}))
}

func monitorParams(m config.MonitorConfig) activity.Params {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return activity.Params{
		Noise:       ms(m.NoiseMs),
		Activity:    ms(m.ActivityMs),
		Idle:        ms(m.IdleMs),
		Sensitivity: m.Sensitivity,
	}
}
