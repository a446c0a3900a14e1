package clock

import (
	"sync"
	"time"
)

// Source provides monotonic and wall clock time.
type Source interface {
	// Monotonic returns the time elapsed since an arbitrary fixed origin.
	Monotonic() time.Duration
	// Now returns the current wall clock time.
	Now() time.Time
}

// MonotonicSec returns the monotonic time of src in whole seconds.
func MonotonicSec(src Source) int64 {
	return int64(src.Monotonic() / time.Second)
}

// RealSec returns the wall clock time of src as unix seconds.
func RealSec(src Source) int64 {
	return src.Now().Unix()
}

// System is the process clock. Its monotonic origin is the moment it was
// created.
type System struct {
	start time.Time
}

// NewSystem creates a system clock.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) Monotonic() time.Duration {
	// The origin is offset by one hour so that a zero monotonic second
	// never occurs; zero is used as "unset" by timers.
	return time.Since(s.start) + time.Hour
}

func (s *System) Now() time.Time {
	return time.Now()
}

// Manual is a clock that only moves when told to.
type Manual struct {
	mu        sync.Mutex
	monotonic time.Duration
	now       time.Time
}

// NewManual creates a manual clock at the given wall time. Monotonic time
// starts at 1000 seconds.
func NewManual(now time.Time) *Manual {
	return &Manual{monotonic: 1000 * time.Second, now: now}
}

func (m *Manual) Monotonic() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monotonic
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves both clocks forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monotonic += d
	m.now = m.now.Add(d)
}

// SetNow moves the wall clock only.
func (m *Manual) SetNow(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
