package testing

import (
	"sync"
	"time"

	"github.com/go-drift/loom/pkg/engine"
)

// ManualTicker is an engine.Ticker that only ticks when told to. It keeps
// its own fake time, advanced by one interval per tick. All methods are
// safe for concurrent use.
type ManualTicker struct {
	mu       sync.Mutex
	now      time.Time
	interval time.Duration
	c        chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewManualTicker returns a ticker starting at a fixed epoch.
func NewManualTicker(interval time.Duration) *ManualTicker {
	return &ManualTicker{
		now:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		interval: interval,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}
}

func (t *ManualTicker) C() <-chan time.Time { return t.c }

func (t *ManualTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop was called.
func (t *ManualTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// Interval returns the interval the ticker was created with.
func (t *ManualTicker) Interval() time.Duration { return t.interval }

// Now returns the current fake time.
func (t *ManualTicker) Now() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// Tick advances the fake time and blocks until the receiver takes the tick.
// It returns false if the ticker is stopped first.
//
// The engine handles ticks one at a time on a single goroutine, so once a
// second Tick returns, the frame for the first one has finished.
func (t *ManualTicker) Tick() bool {
	if t.Stopped() {
		return false
	}
	t.mu.Lock()
	t.now = t.now.Add(t.interval)
	now := t.now
	t.mu.Unlock()

	select {
	case t.c <- now:
		return true
	case <-t.stopped:
		return false
	}
}

// Tickers is an engine ticker factory that keeps every ticker it creates.
type Tickers struct {
	mu      sync.Mutex
	created []*ManualTicker
}

// New creates a ManualTicker. Pass it as engine.Options.NewTicker.
func (f *Tickers) New(interval time.Duration) engine.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := NewManualTicker(interval)
	f.created = append(f.created, t)
	return t
}

// Last returns the most recently created ticker, or nil.
func (f *Tickers) Last() *ManualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

// Count returns how many tickers were created.
func (f *Tickers) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}
