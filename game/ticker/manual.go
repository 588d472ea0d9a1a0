package ticker

import (
	"sync"
	"time"
)

// ManualClock hands out tickers that only fire when told to
type ManualClock struct {
	mu      sync.Mutex
	tickers []*ManualTicker
}

// NewManualClock creates a clock with no tickers
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	t := &ManualTicker{
		Interval: d,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	m.mu.Lock()
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()
	return t
}

// Latest returns the most recently created ticker, or nil
func (m *ManualClock) Latest() *ManualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tickers) == 0 {
		return nil
	}
	return m.tickers[len(m.tickers)-1]
}

// Count returns how many tickers were created
func (m *ManualClock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// ManualTicker is a Ticker driven by Fire
type ManualTicker struct {
	Interval time.Duration

	c        chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

func (t *ManualTicker) C() <-chan time.Time {
	return t.c
}

func (t *ManualTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Fire delivers one tick. It blocks until the tick loop receives it and
// returns false if the ticker is stopped first.
func (t *ManualTicker) Fire() bool {
	select {
	case t.c <- time.Now():
		return true
	case <-t.stopped:
		return false
	}
}

// Stopped reports whether Stop was called
func (t *ManualTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
