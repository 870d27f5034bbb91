package app_test

import (
	"sync"
	"testing"
	"time"

	"tably-service/internal/app"
)

// manualClock is a Clock whose tickers and timers fire only when the test says so.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	timers  []chan time.Time
}

type manualTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) Chan() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(time.Duration) app.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) After(time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.timers = append(c.timers, ch)
	return ch
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Tick advances one second and delivers it to the newest running ticker.
func (c *manualClock) Tick(t *testing.T) {
	t.Helper()
	c.Advance(time.Second)
	c.mu.Lock()
	var active *manualTicker
	for i := len(c.tickers) - 1; i >= 0; i-- {
		c.tickers[i].mu.Lock()
		stopped := c.tickers[i].stopped
		c.tickers[i].mu.Unlock()
		if !stopped {
			active = c.tickers[i]
			break
		}
	}
	now := c.now
	c.mu.Unlock()
	if active == nil {
		t.Fatalf("no running ticker")
	}
	select {
	case active.c <- now:
	case <-time.After(2 * time.Second):
		t.Fatalf("tick not consumed")
	}
}

// EndFeedback fires the newest pending timer.
func (c *manualClock) EndFeedback(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		t.Fatalf("no pending timer")
	}
	last := c.timers[len(c.timers)-1]
	c.timers = c.timers[:len(c.timers)-1]
	last <- c.now
}
