package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/siegfried/workrave/internal/clock"
	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/stats"
	"github.com/siegfried/workrave/internal/timer"
)

type fakeBreak struct {
	enabled bool
	active  bool
	timer   *timer.Timer
}

func (b *fakeBreak) IsEnabled() bool { return b.enabled }
func (b *fakeBreak) IsActive() bool { return b.active }
func (b *fakeBreak) Timer() *timer.Timer { return b.timer }

type fakeModes struct {
	mode  core.OperationMode
	usage core.UsageMode
}

func (m fakeModes) ActiveOperationMode() core.OperationMode { return m.mode }
func (m fakeModes) UsageMode() core.UsageMode { return m.usage }

type fakeReports struct {
	report *stats.ComplianceReport
	err    error
}

func (r fakeReports) GetComplianceReport(string) (*stats.ComplianceReport, error) {
	return r.report, r.err
}

func newBreakTimer(clk *clock.Manual, id core.BreakID, limit int64) *timer.Timer {
	tm := timer.New(id.String(), clk)
	tm.SetLimit(limit)
	tm.SetAutoReset(30)
	tm.Enable()
	return tm
}

func TestStatusLine(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	views := map[core.BreakID]*fakeBreak{
		core.MicroBreak: {enabled: true, timer: newBreakTimer(clk, core.MicroBreak, 180)},
		core.RestBreak:  {enabled: false, timer: newBreakTimer(clk, core.RestBreak, 2700)},
		core.DailyLimit: {enabled: true, active: true, timer: newBreakTimer(clk, core.DailyLimit, 14400)},
	}
	views[core.MicroBreak].timer.Process(true)
	clk.Advance(time.Minute)

	s := NewStatus(func(id core.BreakID) BreakView { return views[id] }, fakeModes{usage: core.UsageReading}, nil)

	assert.Equal(t, "normal (reading) | micro pause in 2 minutes | daily limit now", s.Line())

	clk.Advance(3 * time.Minute)
	assert.Equal(t, "normal (reading) | micro pause overdue by 1 minute | daily limit now", s.Line())
}

func TestStatusSummary(t *testing.T) {
	lookup := func(core.BreakID) BreakView { return nil }

	s := NewStatus(lookup, fakeModes{}, fakeReports{report: &stats.ComplianceReport{
		UniqueBreaks:   1200,
		Taken:          900,
		NaturalTaken:   15,
		Skipped:        3,
		ComplianceRate: 76.25,
	}})
	assert.Equal(t, "Today: 900 of 1,200 breaks taken (76%), 15 natural, 3 skipped", s.Summary("today"))

	s = NewStatus(lookup, fakeModes{}, fakeReports{err: errors.New("no db")})
	assert.Equal(t, "Week: no data", s.Summary("week"))

	s = NewStatus(lookup, fakeModes{}, nil)
	assert.Equal(t, "Month: no data", s.Summary("month"))
}
