package activity

import (
	"log"
	"sync"
	"time"
)

// Monitor reports whether the user is currently active.
type Monitor interface {
	IsActive() bool
	Suspend()
	Resume()
	ForceIdle()
	// Mark returns a counter that increases with every observed input
	// action. Comparing two marks tells whether input happened in between.
	Mark() uint64
}

// Notifier receives raw input actions.
type Notifier interface {
	ActionNotify()
}

// Poller samples an IdleSource and reports input to a Notifier
type Poller struct {
	source       IdleSource
	notifier     Notifier
	pollInterval time.Duration
	lastIdle     time.Duration
	failing      bool
	ticker       *time.Ticker
	stopChan     chan struct{}
	mu           sync.Mutex
	running      bool
}

// NewPoller creates a new poller
func NewPoller(source IdleSource, notifier Notifier, pollInterval time.Duration) *Poller {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &Poller{
		source:       source,
		notifier:     notifier,
		pollInterval: pollInterval,
	}
}

// Start begins polling the idle source
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.stopChan = make(chan struct{})
	p.ticker = time.NewTicker(p.pollInterval)

	go p.pollLoop(p.ticker, p.stopChan)
}

// Stop stops polling
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.running = false
	close(p.stopChan)

	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}

// IsRunning reports whether the poll loop is active
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) pollLoop(ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			p.Poll()
		case <-stop:
			return
		}
	}
}

// Poll takes one idle-time sample. Input is assumed whenever the idle time
// went down since the previous sample or is shorter than one poll interval.
func (p *Poller) Poll() {
	idleDuration, err := p.source.IdleDuration()
	if err != nil {
		// If we can't get idle time, assume no input
		if !p.failing {
			log.Printf("Warning: failed to read idle time: %v", err)
			p.failing = true
		}
		return
	}
	p.failing = false

	sawInput := idleDuration < p.pollInterval || idleDuration < p.lastIdle
	p.lastIdle = idleDuration

	if sawInput {
		p.notifier.ActionNotify()
	}
}
