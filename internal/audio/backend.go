// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Backend produces sound for one source at a time. Start replaces whatever
// is playing and returns a token identifying the new playback; Stop is a
// no-op when nothing plays.
type Backend interface {
	Start(src string, at time.Duration, rate float64) (token uint64, err error)
	Stop() error
	Close() error
}

// EndFunc is called when the playback started with token finishes on its
// own. It runs outside the backend lock, so a later Start may already have
// replaced that playback.
type EndFunc func(token uint64)

// RateSetter is implemented by backends that can change rate in place.
// Backends without it are restarted at the current position.
type RateSetter interface {
	SetRate(rate float64) error
}

// Backend kinds accepted by NewBackend.
const (
	BackendAuto   = "auto"
	BackendMPV    = "mpv"
	BackendFFPlay = "ffplay"
	BackendBell   = "bell"
	BackendNone   = "none"
)

// BackendKinds lists the accepted player names.
var BackendKinds = []string{BackendAuto, BackendMPV, BackendFFPlay, BackendBell, BackendNone}

// NewBackend creates the backend named kind. onEnd is called when a source
// finishes on its own (not when it is stopped). out receives the bell.
func NewBackend(kind string, out io.Writer, onEnd EndFunc) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendNone, "":
		return Silent{}, nil
	case BackendBell:
		return NewToneBackend(out, 0, onEnd), nil
	case BackendMPV, BackendFFPlay:
		return NewProcessBackend(kind, onEnd)
	case BackendAuto:
		for _, name := range []string{BackendMPV, BackendFFPlay} {
			if b, err := NewProcessBackend(name, onEnd); err == nil {
				return b, nil
			}
		}
		log.Printf("AUDIO_BACKEND | kind=auto fallback=bell")
		return NewToneBackend(out, 0, onEnd), nil
	}
	return nil, fmt.Errorf("unknown audio player %q (want one of %s)", kind, strings.Join(BackendKinds, ", "))
}

// =============================================================================
// SILENT
// =============================================================================

// Silent accepts every call and plays nothing.
type Silent struct{}

func (Silent) Start(string, time.Duration, float64) (uint64, error) { return 0, nil }
func (Silent) Stop() error                                          { return nil }
func (Silent) Close() error                                         { return nil }
func (Silent) SetRate(float64) error                                { return nil }

// =============================================================================
// PROCESS BACKEND
// =============================================================================

// ProcessBackend plays through an external player (mpv or ffplay).
type ProcessBackend struct {
	name  string
	path  string
	onEnd EndFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
	closed bool
}

// NewProcessBackend looks up the named player on PATH.
func NewProcessBackend(name string, onEnd EndFunc) (*ProcessBackend, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoPlayer, name, err)
	}
	return &ProcessBackend{name: name, path: path, onEnd: onEnd}, nil
}

// Name returns the player name.
func (b *ProcessBackend) Name() string {
	return b.name
}

// Args returns the player arguments for a source, start offset and rate.
func (b *ProcessBackend) Args(src string, at time.Duration, rate float64) []string {
	secs := strconv.FormatFloat(at.Seconds(), 'f', 2, 64)
	speed := strconv.FormatFloat(rate, 'f', 1, 64)
	if b.name == BackendFFPlay {
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet",
			"-ss", secs, "-af", "atempo=" + speed, src}
	}
	return []string{"--no-video", "--really-quiet", "--start=" + secs, "--speed=" + speed, src}
}

// Start kills the running player, if any, and launches a new one.
func (b *ProcessBackend) Start(src string, at time.Duration, rate float64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, ErrClosed
	}
	b.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, b.path, b.Args(src, at, rate)...)
	if err := cmd.Start(); err != nil {
		cancel()
		return 0, fmt.Errorf("failed to start %s: %w", b.name, err)
	}
	b.gen++
	b.cancel = cancel
	go b.wait(cmd, b.gen)
	return b.gen, nil
}

func (b *ProcessBackend) wait(cmd *exec.Cmd, gen uint64) {
	err := cmd.Wait()

	b.mu.Lock()
	current := b.gen == gen
	if current {
		b.cancel()
		b.cancel = nil
	}
	b.mu.Unlock()

	// Only a process that ran to completion counts as ended.
	if current && err == nil && b.onEnd != nil {
		b.onEnd(gen)
	}
}

// Stop kills the running player.
func (b *ProcessBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	return nil
}

func (b *ProcessBackend) stopLocked() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.cancel = nil
	b.gen++
}

// Close stops playback and refuses further starts.
func (b *ProcessBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	b.closed = true
	return nil
}

// =============================================================================
// TONE BACKEND
// =============================================================================

// DefaultToneLength is how long a bell "track" lasts at 1.0x.
const DefaultToneLength = 30 * time.Second

// ToneBackend stands in for real playback on terminals without a player:
// it rings the bell on start and schedules the end of the track.
type ToneBackend struct {
	out    io.Writer
	length time.Duration
	onEnd  EndFunc

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewToneBackend creates a bell backend. length <= 0 selects DefaultToneLength.
func NewToneBackend(out io.Writer, length time.Duration, onEnd EndFunc) *ToneBackend {
	if length <= 0 {
		length = DefaultToneLength
	}
	return &ToneBackend{out: out, length: length, onEnd: onEnd}
}

// Start rings the bell and schedules the end of the track.
func (b *ToneBackend) Start(_ string, at time.Duration, rate float64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()

	if b.out != nil {
		if _, err := io.WriteString(b.out, "\a"); err != nil {
			return 0, fmt.Errorf("failed to ring bell: %w", err)
		}
	}

	remaining := b.length - at
	if remaining <= 0 {
		remaining = b.length
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(time.Duration(float64(remaining)/rate), func() {
		b.mu.Lock()
		current := b.gen == gen
		if current {
			b.timer = nil
		}
		b.mu.Unlock()
		if current && b.onEnd != nil {
			b.onEnd(gen)
		}
	})
	return gen, nil
}

// Stop cancels the scheduled end.
func (b *ToneBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	return nil
}

func (b *ToneBackend) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

// Close is Stop.
func (b *ToneBackend) Close() error {
	return b.Stop()
}
