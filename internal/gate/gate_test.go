// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeranaias/casefile-tui/internal/audit"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T, mutate func(*Config), opts ...Option) (*Gate, *audit.Log) {
	t.Helper()
	cfg := DefaultConfig(testPhone, testCode)
	if mutate != nil {
		mutate(&cfg)
	}
	log := audit.NewLog(audit.DefaultMaxEntries)
	g, err := New(cfg, append([]Option{WithRecorder(log)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g, log
}

func TestGate_RecordsEveryEvaluatedSubmission(t *testing.T) {
	g, log := newTestGate(t, nil)

	g.Submit(testPhone, "A")
	g.Submit(testPhone, "B")
	g.Submit(testPhone, "C") // locks
	g.Submit(testPhone, testCode)

	require.Equal(t, 4, log.Len())
	latest, ok := log.Latest()
	require.True(t, ok)
	require.Equal(t, "locked_out", latest.Outcome)
	require.Equal(t, "C", log.Entries()[1].Code, "newest first")

	s := g.Snapshot()
	require.Equal(t, 3, s.Attempts)
	require.Equal(t, 300, s.LockRemaining)
}

func TestGate_GrantedSubmitsAreNotAudited(t *testing.T) {
	g, log := newTestGate(t, nil)

	res := g.Submit(testPhone, testCode)
	require.Equal(t, KindSuccess, res.Kind)
	require.Equal(t, 1, log.Len())

	res = g.Submit(testPhone, "WRONG")
	require.Equal(t, KindIgnored, res.Kind)
	require.Equal(t, 1, log.Len())
	require.True(t, g.Snapshot().Granted)
}

func TestGate_ManualTick(t *testing.T) {
	g, _ := newTestGate(t, func(c *Config) {
		c.MaxAttempts = 1
		c.LockStep = 2 * time.Second
	})

	res := g.Submit(testPhone, "X")
	require.True(t, res.LockEngaged)
	require.Equal(t, 2, g.Snapshot().LockRemaining)

	require.Equal(t, 1, g.Tick().LockRemaining)
	require.Equal(t, 0, g.Tick().LockRemaining)
	require.Equal(t, 0, g.Tick().LockRemaining)

	require.Equal(t, KindSuccess, g.Submit(testPhone, testCode).Kind)
}

func TestGate_CountdownRunsAndStops(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks []int
	)
	notify := func(s State) {
		mu.Lock()
		ticks = append(ticks, s.LockRemaining)
		mu.Unlock()
	}
	g, _ := newTestGate(t, func(c *Config) {
		c.MaxAttempts = 1
		c.LockStep = 3 * time.Second
	}, WithTicker(2*time.Millisecond, notify))

	g.Submit(testPhone, "X")

	require.Eventually(t, func() bool {
		return g.Snapshot().LockRemaining == 0
	}, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return !g.countdown.Active()
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{2, 1, 0}, ticks)
}

func TestGate_CloseStopsTicks(t *testing.T) {
	var count atomic.Int64
	g, _ := newTestGate(t, func(c *Config) {
		c.MaxAttempts = 1
		c.LockStep = time.Hour
	}, WithTicker(time.Millisecond, func(State) { count.Add(1) }))

	g.Submit(testPhone, "X")
	require.Eventually(t, func() bool { return count.Load() > 0 }, time.Second, time.Millisecond)

	g.Close()
	after := count.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, count.Load(), "no ticks after Close")
	require.False(t, g.countdown.Active())

	require.Equal(t, KindIgnored, g.Submit(testPhone, testCode).Kind)
}

func TestGate_ResetClearsDenial(t *testing.T) {
	g, _ := newTestGate(t, func(c *Config) { c.Policy = PolicyFixedCutoff })

	for i := 0; i < 3; i++ {
		g.Submit(testPhone, "X")
	}
	require.Equal(t, KindMaxAttemptsExceeded, g.Submit(testPhone, testCode).Kind)

	s := g.Reset()
	require.Equal(t, State{}, s)
	require.Equal(t, KindSuccess, g.Submit(testPhone, testCode).Kind)

	s = g.Reset()
	require.True(t, s.Granted, "reset never revokes a grant")
}

func TestGate_ResetStopsCountdown(t *testing.T) {
	g, _ := newTestGate(t, func(c *Config) {
		c.MaxAttempts = 1
		c.LockStep = time.Hour
	}, WithTicker(time.Millisecond, nil))

	g.Submit(testPhone, "X")
	require.True(t, g.Snapshot().Locked())

	g.Reset()
	require.False(t, g.countdown.Active())
	require.False(t, g.Snapshot().Locked())
}

func TestGate_ConcurrentSubmitAndTick(t *testing.T) {
	g, log := newTestGate(t, func(c *Config) { c.MaxAttempts = 1000 })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				g.Submit(testPhone, "X")
				g.Tick()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, g.Snapshot().Attempts)
	require.Equal(t, audit.DefaultMaxEntries, log.Len())
}

func TestGate_SnapshotIsACopy(t *testing.T) {
	g, _ := newTestGate(t, nil)
	g.Submit(testPhone, "X")

	s := g.Snapshot()
	s.Alert.Text = "changed"
	require.NotEqual(t, "changed", g.Snapshot().Alert.Text)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
