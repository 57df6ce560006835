// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"sync"
	"time"
)

// Countdown runs a function on a fixed interval until it returns false or
// the countdown is stopped. At most one run is active: Start replaces any
// previous run, and Stop returns only after the run goroutine has exited.
//
// The function must not call Start or Stop on its own Countdown.
type Countdown struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewCountdown creates a stopped countdown. A non-positive interval selects
// DefaultTickInterval.
func NewCountdown(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Countdown{interval: interval}
}

// Interval returns the tick interval.
func (c *Countdown) Interval() time.Duration {
	return c.interval
}

// Start cancels any active run and begins a new one calling fn each interval.
func (c *Countdown) Start(fn func() bool) {
	stop := make(chan struct{})
	done := make(chan struct{})

	c.mu.Lock()
	oldStop, oldDone := c.stop, c.done
	c.stop, c.done = stop, done
	c.mu.Unlock()

	halt(oldStop, oldDone)
	go c.run(fn, stop, done)
}

// Stop cancels the active run, if any, and waits for it to exit.
// It is safe to call repeatedly.
func (c *Countdown) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	halt(stop, done)
}

// Active reports whether a run is in progress.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (c *Countdown) run(fn func() bool, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A stop that raced the tick wins.
			select {
			case <-stop:
				return
			default:
			}
			if !fn() {
				return
			}
		}
	}
}

func halt(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
