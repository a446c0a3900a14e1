package stats

import (
	"time"

	"github.com/siegfried/workrave/internal/core"
)

// BreakStats holds the counters of one break for one day
type BreakStats map[core.BreakCounter]int64

// DailyStats holds the statistics of a single day
type DailyStats struct {
	ID        string                      `json:"id"`
	StartedAt time.Time                   `json:"started_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	Breaks    map[core.BreakID]BreakStats `json:"breaks"`
	Counters  map[core.Counter]int64      `json:"counters"`
}

// Break returns the counters of the given break, never nil.
func (d *DailyStats) Break(id core.BreakID) BreakStats {
	if bs, ok := d.Breaks[id]; ok {
		return bs
	}
	return BreakStats{}
}

// ComplianceReport provides compliance statistics for a period
type ComplianceReport struct {
	Period         string  `json:"period"` // "today", "week", "month"
	Days           int     `json:"days"`
	UniqueBreaks   int64   `json:"unique_breaks"`
	Taken          int64   `json:"taken"`
	NaturalTaken   int64   `json:"natural_taken"`
	Skipped        int64   `json:"skipped"`
	Postponed      int64   `json:"postponed"`
	Ignored        int64   `json:"ignored"`
	ComplianceRate float64 `json:"compliance_rate"`
	AveragePerDay  float64 `json:"average_per_day"`
}

// CalculateComplianceRate calculates the compliance rate as a percentage
func CalculateComplianceRate(completed, total int64) float64 {
	if total == 0 {
		return 0.0
	}
	rate := float64(completed) / float64(total) * 100.0
	if rate > 100.0 {
		// Natural breaks can outnumber prompted ones.
		return 100.0
	}
	return rate
}
