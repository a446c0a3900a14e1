package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/siegfried/workrave/internal/app"
	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/config"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/stats"
	"github.com/siegfried/workrave/internal/ui"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		run(os.Args[2:])
	case "report":
		period := "today"
		if len(os.Args) > 2 {
			period = os.Args[2]
		}
		report(period)
	case "config":
		configure(os.Args[2:])
	case "version":
		fmt.Printf("workrave version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`workrave - Break reminders for repetitive strain injury prevention

Usage:
  workrave <command> [options]

Commands:
  run [-config file] [-quiet] [-reading]
                     Run the break timers in the foreground
  report [period]    Show break statistics (period: today, week, month)
  config key [value] Show or change a configuration value
  version            Show version information
  help               Show this help message

Signals (while running):
  SIGUSR1            Start a rest break now
  SIGUSR2            Toggle between normal and suspended

Environment Variables:
  WORKRAVE_STATE_DIR       Directory of the state file and statistics
  WORKRAVE_INSIST_POLICY   halt, reset or ignore
  WORKRAVE_USAGE_MODE      normal or reading

Version: %s
`, version)
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	quiet := fs.Bool("quiet", false, "suppress breaks until exit")
	reading := fs.Bool("reading", false, "start in reading mode")
	_ = fs.Parse(args)

	a, err := app.New(app.Options{ConfigPath: *configPath, Quiet: *quiet, Reading: *reading})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userSignals := make(chan os.Signal, 1)
	signal.Notify(userSignals, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(userSignals)

	go func() {
		suspended := false
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-userSignals:
				switch sig {
				case syscall.SIGUSR1:
					a.ForceBreak(core.RestBreak)
				case syscall.SIGUSR2:
					suspended = !suspended
					if suspended {
						a.SetOperationMode(core.OperationSuspended)
					} else {
						a.SetOperationMode(core.OperationNormal)
					}
				}
			}
		}
	}()

	if err := a.Run(ctx); err != nil {
		log.Printf("Run error: %v", err)
	}
	a.Shutdown()
}

func report(period string) {
	configManager, err := config.NewManager("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	configManager.ApplyEnv()

	stateDir := configManager.StateDir()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		log.Fatalf("Failed to create state directory: %v", err)
	}

	store, err := stats.NewReader(stateDir, clock.NewSystem())
	if err != nil {
		log.Fatalf("Failed to open statistics: %v", err)
	}
	defer store.Close()

	status := ui.NewStatus(nil, nil, store)
	fmt.Println(status.Summary(period))
}

func configure(args []string) {
	if len(args) == 0 || len(args) > 2 {
		fmt.Println("Usage: workrave config key [value]")
		os.Exit(1)
	}

	configManager, err := config.NewManager("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(args) == 2 {
		if err := configManager.SetValue(args[0], args[1]); err != nil {
			log.Fatalf("Failed to set %s: %v", args[0], err)
		}
	}

	value, err := configManager.Value(args[0])
	if err != nil {
		log.Fatalf("Failed to read %s: %v", args[0], err)
	}
	fmt.Printf("%s = %s\n", args[0], value)
}
