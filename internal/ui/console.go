package ui

import (
	"log"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/siegfried/workrave/internal/core"
)

// Console implements core.App by logging break windows instead of
// drawing them. Only one window exists at a time.
type Console struct {
	logger *log.Logger

	breakID     core.BreakID
	hint        core.BreakHint
	isPrelude   bool
	isShowing   bool
	stage       core.PreludeStage
	text        core.PreludeProgressText
	progress    int
	progressMax int
}

// NewConsole creates a console writing to logger, or to the standard
// logger when nil.
func NewConsole(logger *log.Logger) *Console {
	if logger == nil {
		logger = log.Default()
	}
	return &Console{logger: logger}
}

// CreatePreludeWindow announces an upcoming break.
func (c *Console) CreatePreludeWindow(id core.BreakID) {
	c.breakID = id
	c.hint = core.HintNormal
	c.isPrelude = true
	c.stage = core.PreludeInitial
}

// CreateBreakWindow prepares the break window for id.
func (c *Console) CreateBreakWindow(id core.BreakID, hint core.BreakHint) {
	c.breakID = id
	c.hint = hint
	c.isPrelude = false
}

// ShowBreakWindow announces the current window.
func (c *Console) ShowBreakWindow() {
	if c.isShowing {
		return
	}
	c.isShowing = true

	if c.isPrelude {
		c.logger.Printf("Time for a %s soon", label(c.breakID))
		return
	}

	msg := "Time for a " + label(c.breakID)
	if c.hint.Has(core.HintUserInitiated) {
		msg = "Starting a " + label(c.breakID)
	}
	if c.progressMax > 0 {
		msg += ", step away for " + span(time.Duration(c.progressMax)*time.Second)
	}
	c.logger.Println(msg)
}

// HideBreakWindow closes the current window.
func (c *Console) HideBreakWindow() {
	if !c.isShowing {
		return
	}
	c.isShowing = false

	if !c.isPrelude {
		c.logger.Printf("%s over", capitalize(label(c.breakID)))
	}
}

// RefreshBreakWindow is a no-op; progress is only tracked.
func (c *Console) RefreshBreakWindow() {}

// SetBreakProgress records the break progress.
func (c *Console) SetBreakProgress(value, max int) {
	c.progress = value
	c.progressMax = max
}

// SetPreludeStage logs escalation of the prelude.
func (c *Console) SetPreludeStage(stage core.PreludeStage) {
	if stage == c.stage {
		return
	}
	c.stage = stage

	switch stage {
	case core.PreludeWarn, core.PreludeAlert:
		c.logger.Printf("Still busy, %s pending (%s)", label(c.breakID), stage)
	}
}

// SetPreludeProgressText records the prelude text.
func (c *Console) SetPreludeProgressText(text core.PreludeProgressText) {
	c.text = text
}

// IsShowing reports whether a window is visible.
func (c *Console) IsShowing() bool {
	return c.isShowing
}

// Current returns the break of the current window and whether it is a
// prelude.
func (c *Console) Current() (core.BreakID, bool) {
	return c.breakID, c.isPrelude
}

// Progress returns the last progress update.
func (c *Console) Progress() (value, max int) {
	return c.progress, c.progressMax
}

// PreludeStage returns the last prelude stage.
func (c *Console) PreludeStage() core.PreludeStage {
	return c.stage
}

// label returns a readable break name, such as "rest break".
func label(id core.BreakID) string {
	return strings.ReplaceAll(id.String(), "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

// span renders d as "10 minutes".
func span(d time.Duration) string {
	var zero time.Time
	return strings.TrimSpace(humanize.RelTime(zero, zero.Add(d), "", ""))
}
