package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/stats"
	"github.com/siegfried/workrave/internal/timer"
)

// BreakView is the part of a break shown in the status line.
type BreakView interface {
	IsEnabled() bool
	IsActive() bool
	Timer() *timer.Timer
}

// ModeSource reports the current modes.
type ModeSource interface {
	ActiveOperationMode() core.OperationMode
	UsageMode() core.UsageMode
}

// Reports provides statistics summaries.
type Reports interface {
	GetComplianceReport(period string) (*stats.ComplianceReport, error)
}

// Status renders one-line summaries of the break engine
type Status struct {
	lookup  func(core.BreakID) BreakView
	modes   ModeSource
	reports Reports
}

// NewStatus creates a status reporter. reports may be nil.
func NewStatus(lookup func(core.BreakID) BreakView, modes ModeSource, reports Reports) *Status {
	return &Status{lookup: lookup, modes: modes, reports: reports}
}

// Line returns the modes and the time left until each enabled break,
// e.g. "normal | micro pause in 2 minutes | rest break in 40 minutes".
func (s *Status) Line() string {
	mode := s.modes.ActiveOperationMode().String()
	if s.modes.UsageMode() == core.UsageReading {
		mode += " (reading)"
	}
	parts := []string{mode}

	for _, id := range core.BreakIDs {
		b := s.lookup(id)
		if b == nil || !b.IsEnabled() {
			continue
		}

		t := b.Timer()
		remaining := t.Limit() - t.ElapsedTime()

		switch {
		case b.IsActive():
			parts = append(parts, label(id)+" now")
		case remaining <= 0:
			parts = append(parts, fmt.Sprintf("%s overdue by %s", label(id), span(seconds(-remaining))))
		default:
			parts = append(parts, fmt.Sprintf("%s in %s", label(id), span(seconds(remaining))))
		}
	}

	return strings.Join(parts, " | ")
}

// Summary returns the break statistics of a period: today, week or month.
func (s *Status) Summary(period string) string {
	title := capitalize(period)
	if s.reports == nil {
		return title + ": no data"
	}

	report, err := s.reports.GetComplianceReport(period)
	if err != nil {
		return title + ": no data"
	}

	return fmt.Sprintf("%s: %s of %s breaks taken (%.0f%%), %s natural, %s skipped",
		title,
		humanize.Comma(report.Taken),
		humanize.Comma(report.UniqueBreaks),
		report.ComplianceRate,
		humanize.Comma(report.NaturalTaken),
		humanize.Comma(report.Skipped))
}
