// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCountdown_StopsWhenFnReturnsFalse(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	var n atomic.Int32

	c.Start(func() bool { return n.Add(1) < 3 })
	waitFor(t, func() bool { return !c.Active() })

	if got := n.Load(); got != 3 {
		t.Errorf("fn called %d times, want 3", got)
	}
}

func TestCountdown_StartReplacesPrevious(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	defer c.Stop()

	var first, second atomic.Int32
	c.Start(func() bool { first.Add(1); return true })
	waitFor(t, func() bool { return first.Load() > 0 })

	c.Start(func() bool { second.Add(1); return true })
	stopped := first.Load()
	waitFor(t, func() bool { return second.Load() > 2 })

	if first.Load() != stopped {
		t.Error("first run kept ticking after Start replaced it")
	}
}

func TestCountdown_StopIsIdempotent(t *testing.T) {
	c := NewCountdown(time.Millisecond)
	c.Stop()

	var n atomic.Int32
	c.Start(func() bool { n.Add(1); return true })
	if !c.Active() {
		t.Error("expected Active after Start")
	}
	c.Stop()
	c.Stop()
	if c.Active() {
		t.Error("expected inactive after Stop")
	}

	after := n.Load()
	time.Sleep(10 * time.Millisecond)
	if n.Load() != after {
		t.Error("fn called after Stop returned")
	}
}

func TestNewCountdown_DefaultInterval(t *testing.T) {
	if got := NewCountdown(0).Interval(); got != DefaultTickInterval {
		t.Errorf("Interval() = %v, want %v", got, DefaultTickInterval)
	}
}
