// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"log"
	"sync"
	"time"

	"github.com/jeranaias/casefile-tui/internal/audit"
)

// Recorder receives one audit entry per evaluated or rejected submission.
// *audit.Log satisfies it.
type Recorder interface {
	Append(audit.Entry)
}

// Gate owns a State and serializes every transition through one mutex.
// The countdown goroutine and the UI loop both go through it.
type Gate struct {
	mu     sync.Mutex
	cfg    Config
	state  State
	closed bool

	recorder Recorder
	now      func() time.Time

	countdown *Countdown
	notify    func(State)
}

// Option configures a Gate.
type Option func(*Gate)

// WithRecorder sets where audit entries go.
func WithRecorder(r Recorder) Option {
	return func(g *Gate) {
		g.recorder = r
	}
}

// WithClock overrides time.Now (tests, TOTP).
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithTicker makes the gate run its own lock countdown at the given interval.
// notify, if non-nil, is called after every tick with the new state. It runs
// on the countdown goroutine without the gate lock held.
func WithTicker(interval time.Duration, notify func(State)) Option {
	return func(g *Gate) {
		g.countdown = NewCountdown(interval)
		g.notify = notify
	}
}

// New creates a gate in the initial state.
func New(cfg Config, opts ...Option) (*Gate, error) {
	prepared, err := Prepare(cfg)
	if err != nil {
		return nil, err
	}
	g := &Gate{
		cfg: prepared,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the prepared configuration.
func (g *Gate) Config() Config {
	return g.cfg
}

// Submit evaluates one submission, records it and starts the countdown when
// a lock engages.
func (g *Gate) Submit(phone, code string) Result {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return Result{Kind: KindIgnored}
	}
	next, res := Evaluate(g.cfg, g.state, phone, code, g.now())
	g.state = next
	attempts, lock := next.Attempts, next.LockRemaining
	g.mu.Unlock()

	if res.Kind == KindIgnored {
		return res
	}

	if g.recorder != nil && res.Entry != nil {
		g.recorder.Append(*res.Entry)
	}

	log.Printf("GATE_SUBMIT | kind=%s attempts=%d/%d lock=%ds phone=%q",
		res.Kind, attempts, g.cfg.MaxAttempts, lock, maskPhone(res.Entry.Phone))

	if res.LockEngaged {
		log.Printf("GATE_LOCK | seconds=%d group=%d", lock, attempts/g.cfg.MaxAttempts)
		if g.countdown != nil {
			g.countdown.Start(g.tick)
		}
	}
	return res
}

// Tick applies one countdown step. It is exported for callers that drive the
// clock themselves instead of using WithTicker.
func (g *Gate) Tick() State {
	g.mu.Lock()
	next, expired := Advance(g.state)
	g.state = next
	g.mu.Unlock()

	if expired {
		log.Printf("GATE_UNLOCK | attempts=%d", next.Attempts)
	}
	return next
}

// tick is the countdown callback; it reports whether to keep ticking.
func (g *Gate) tick() bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	g.mu.Unlock()

	next := g.Tick()
	if g.notify != nil {
		g.notify(next)
	}
	return next.LockRemaining > 0
}

// Snapshot returns a copy of the current state.
func (g *Gate) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.state
	if s.Alert != nil {
		a := *s.Alert
		s.Alert = &a
	}
	return s
}

// Reset clears attempts, lock and denial. A granted gate stays granted.
func (g *Gate) Reset() State {
	if g.countdown != nil {
		g.countdown.Stop()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Granted {
		return g.state
	}
	g.state = State{}
	log.Printf("GATE_RESET | policy=%s", g.cfg.Policy)
	return g.state
}

// Close stops the countdown. No ticks are delivered after Close returns and
// later submissions are ignored.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	if g.countdown != nil {
		g.countdown.Stop()
	}
}

// maskPhone keeps the last three digits for operational logs.
func maskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 3 {
		return "***"
	}
	return "***" + string(r[len(r)-3:])
}
