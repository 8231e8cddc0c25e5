package session

import (
	"sync"
	"time"
)

// Countdown is an explicitly owned one-second ticking resource.
// Start and Cancel form a pair: whoever starts a countdown must cancel
// it on teardown. The controller cancels it itself on every terminal
// transition, so a dead session never keeps a ticker alive.
type Countdown struct {
	mu      sync.Mutex
	ticker  *time.Ticker
	done    chan struct{}
	running bool
}

// NewCountdown returns an idle countdown.
func NewCountdown() *Countdown {
	return &Countdown{}
}

// Start begins invoking tick once per second until Cancel is called.
// Starting an already running countdown is a no-op.
func (cd *Countdown) Start(tick func()) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if cd.running {
		return
	}

	cd.ticker = time.NewTicker(time.Second)
	cd.done = make(chan struct{})
	cd.running = true

	go func(ticker *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tick()
			}
		}
	}(cd.ticker, cd.done)
}

// Cancel stops the ticking goroutine. Safe to call repeatedly and on a
// countdown that was never started.
func (cd *Countdown) Cancel() {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if !cd.running {
		return
	}

	cd.ticker.Stop()
	close(cd.done)
	cd.running = false
}

// Running reports whether the countdown is currently ticking.
func (cd *Countdown) Running() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.running
}
