package breaks

import (
	"log"

	"github.com/siegfried/workrave/internal/core"
	"github.com/siegfried/workrave/internal/timer"
)

// Statistics turns the events of one break into daily counters.
type Statistics struct {
	id    core.BreakID
	store core.Statistics
	timer *timer.Timer
}

func newStatistics(id core.BreakID, store core.Statistics, t *timer.Timer) *Statistics {
	return &Statistics{id: id, store: store, timer: t}
}

var eventCounters = map[core.BreakEvent]core.BreakCounter{
	core.EventBreakStart:     core.CounterUniqueBreaks,
	core.EventShowPrelude:    core.CounterPrompted,
	core.EventBreakTaken:     core.CounterTaken,
	core.EventBreakPostponed: core.CounterPostponed,
	core.EventBreakSkipped:   core.CounterSkipped,
	core.EventBreakIgnored:   core.CounterIgnored,
}

// HandleEvent counts the event, if it is counted at all.
func (s *Statistics) HandleEvent(event core.BreakEvent) {
	if counter, ok := eventCounters[event]; ok {
		s.increment(counter)
	}
}

// NaturalBreakTaken counts a break the user took without being asked.
func (s *Statistics) NaturalBreakTaken() {
	s.increment(core.CounterNaturalTaken)
}

// Update records the overdue time of the break. The daily limit also
// records the total active time of the day.
func (s *Statistics) Update() {
	if err := s.store.SetBreakCounter(s.id, core.CounterTotalOverdue, s.timer.TotalOverdueTime()); err != nil {
		log.Printf("Warning: failed to record overdue time of %s: %v", s.id, err)
	}

	if s.id == core.DailyLimit {
		if err := s.store.SetCounter(core.ValueTotalActiveTime, s.timer.ElapsedTime()); err != nil {
			log.Printf("Warning: failed to record active time: %v", err)
		}
	}
}

func (s *Statistics) increment(counter core.BreakCounter) {
	if err := s.store.IncrementBreakCounter(s.id, counter); err != nil {
		log.Printf("Warning: failed to record %s of %s: %v", counter, s.id, err)
	}
}

type nopStatistics struct{}

func (nopStatistics) IncrementBreakCounter(core.BreakID, core.BreakCounter) error { return nil }
func (nopStatistics) SetBreakCounter(core.BreakID, core.BreakCounter, int64) error { return nil }
func (nopStatistics) SetCounter(core.Counter, int64) error { return nil }
func (nopStatistics) StartNewDay() error { return nil }
func (nopStatistics) Update(bool) error { return nil }
