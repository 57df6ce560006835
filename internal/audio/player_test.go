// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"
)

type startCall struct {
	src  string
	at   time.Duration
	rate float64
}

type fakeBackend struct {
	mu     sync.Mutex
	starts []startCall
	stops  int
	closed bool
	err    error
}

func (f *fakeBackend) Start(src string, at time.Duration, rate float64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.starts = append(f.starts, startCall{src, at, rate})
	return uint64(len(f.starts)), nil
}

// lastToken is the token handed out by the most recent Start.
func (f *fakeBackend) lastToken() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.starts))
}

func (f *fakeBackend) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestPlayer(t *testing.T) (*Player, *fakeBackend, *fakeClock) {
	t.Helper()
	backend := &fakeBackend{}
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	p, err := NewPlayer(TracksFromFiles("/music", DefaultTracks), backend, WithPlayerClock(clock.Now))
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return p, backend, clock
}

func TestTracksFromFiles(t *testing.T) {
	tracks := TracksFromFiles("/music", []string{"music11.mp3", " ", "/abs/music12.mp3"})
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].ID != "music11.mp3" || tracks[0].Title != "music11" || tracks[0].Source != "/music/music11.mp3" {
		t.Errorf("unexpected track: %+v", tracks[0])
	}
	if tracks[1].Source != "/abs/music12.mp3" || tracks[1].ID != "music12.mp3" {
		t.Errorf("absolute path not kept: %+v", tracks[1])
	}
}

func TestClampRate(t *testing.T) {
	tests := map[float64]float64{
		0.1:  0.5,
		0.5:  0.5,
		1.04: 1.0,
		1.06: 1.1,
		1.96: 2.0,
		3.0:  2.0,
		-1:   0.5,
	}
	for in, want := range tests {
		if got := ClampRate(in); got != want {
			t.Errorf("ClampRate(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestNewPlayer_NoTracks(t *testing.T) {
	if _, err := NewPlayer(nil, nil); !errors.Is(err, ErrNoTracks) {
		t.Errorf("err = %v, want ErrNoTracks", err)
	}
}

func TestPlayer_ToggleTracksPosition(t *testing.T) {
	p, backend, clock := newTestPlayer(t)

	playing, err := p.Toggle()
	if err != nil || !playing {
		t.Fatalf("Toggle() = %v, %v", playing, err)
	}
	clock.Advance(10 * time.Second)
	if got := p.Position(); got != 10*time.Second {
		t.Errorf("Position() = %v, want 10s", got)
	}

	playing, _ = p.Toggle()
	if playing {
		t.Fatal("second Toggle should pause")
	}
	clock.Advance(time.Minute)
	if got := p.Position(); got != 10*time.Second {
		t.Errorf("paused Position() = %v, want 10s", got)
	}

	p.Toggle()
	if len(backend.starts) != 2 || backend.starts[1].at != 10*time.Second {
		t.Errorf("resume did not start at the paused position: %+v", backend.starts)
	}
}

func TestPlayer_SelectResumesWhenPlaying(t *testing.T) {
	p, backend, clock := newTestPlayer(t)
	p.Toggle()
	clock.Advance(5 * time.Second)

	if err := p.Select("music12.mp3"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !p.Playing() {
		t.Error("playback should continue on the new track")
	}
	last := backend.starts[len(backend.starts)-1]
	if last.src != "/music/music12.mp3" || last.at != 0 {
		t.Errorf("new track not started from zero: %+v", last)
	}
	if p.Current().ID != "music12.mp3" {
		t.Errorf("Current() = %q", p.Current().ID)
	}
}

func TestPlayer_SelectWhilePaused(t *testing.T) {
	p, backend, _ := newTestPlayer(t)

	if err := p.Select("music13.mp3"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if p.Playing() || len(backend.starts) != 0 {
		t.Error("selecting while paused must not start playback")
	}
	if err := p.Select("music13.mp3"); err != nil {
		t.Errorf("reselect: %v", err)
	}
	if err := p.Select("music99.mp3"); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("err = %v, want ErrUnknownTrack", err)
	}
}

func TestPlayer_NextWraps(t *testing.T) {
	p, _, _ := newTestPlayer(t)
	for _, want := range []string{"music12.mp3", "music13.mp3", "music11.mp3"} {
		if err := p.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got := p.Current().ID; got != want {
			t.Errorf("Current() = %q, want %q", got, want)
		}
	}
}

func TestPlayer_SetRateKeepsPosition(t *testing.T) {
	p, backend, clock := newTestPlayer(t)
	p.Toggle()
	clock.Advance(4 * time.Second)

	got, err := p.SetRate(2.0)
	if err != nil || got != 2.0 {
		t.Fatalf("SetRate = %v, %v", got, err)
	}
	if !p.Playing() {
		t.Error("rate change stopped playback")
	}
	last := backend.starts[len(backend.starts)-1]
	if last.at != 4*time.Second || last.rate != 2.0 {
		t.Errorf("restart = %+v, want at 4s rate 2.0", last)
	}

	clock.Advance(3 * time.Second)
	if pos := p.Position(); pos != 10*time.Second {
		t.Errorf("Position() = %v, want 10s (4s + 3s at 2x)", pos)
	}
}

func TestPlayer_SetRateClampsAndSteps(t *testing.T) {
	p, backend, _ := newTestPlayer(t)

	if got, _ := p.SetRate(5); got != MaxRate {
		t.Errorf("SetRate(5) = %v", got)
	}
	if got, _ := p.Faster(); got != MaxRate {
		t.Errorf("Faster at max = %v", got)
	}
	if got, _ := p.Slower(); got != 1.9 {
		t.Errorf("Slower = %v, want 1.9", got)
	}
	if got, _ := p.SetRate(0); got != MinRate {
		t.Errorf("SetRate(0) = %v", got)
	}
	if p.Playing() || len(backend.starts) != 0 {
		t.Error("rate change while paused must not start playback")
	}
}

func TestPlayer_Ended(t *testing.T) {
	p, backend, clock := newTestPlayer(t)
	p.Toggle()
	clock.Advance(30 * time.Second)

	if !p.Ended(backend.lastToken()) {
		t.Fatal("Ended for the running playback was ignored")
	}
	if p.Playing() {
		t.Error("Ended should mark the player paused")
	}
	if p.Position() != 0 {
		t.Errorf("Position() = %v after end, want 0", p.Position())
	}
}

func TestPlayer_StaleEndIgnored(t *testing.T) {
	p, backend, clock := newTestPlayer(t)
	p.Toggle()
	first := backend.lastToken()

	// The first track is replaced before its end notification arrives.
	if err := p.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	clock.Advance(5 * time.Second)
	if p.Ended(first) {
		t.Error("end of a replaced playback was applied")
	}
	if !p.Playing() {
		t.Error("stale end paused the new track")
	}
	if p.Position() != 5*time.Second {
		t.Errorf("Position() = %v, want 5s", p.Position())
	}

	// Same for a pause then resume of the same track.
	p.Toggle()
	p.Toggle()
	if p.Ended(backend.lastToken() - 1) {
		t.Error("end of a paused playback was applied")
	}
	if !p.Playing() {
		t.Error("stale end paused the resumed track")
	}
	if !p.Ended(backend.lastToken()) || p.Playing() {
		t.Error("current end should pause the player")
	}
}

func TestPlayer_EndWhilePausedIgnored(t *testing.T) {
	p, backend, clock := newTestPlayer(t)
	p.Toggle()
	clock.Advance(10 * time.Second)
	p.Toggle()

	if p.Ended(backend.lastToken()) {
		t.Error("end after pause was applied")
	}
	if p.Position() != 10*time.Second {
		t.Errorf("Position() = %v, want the paused position", p.Position())
	}
}

func TestPlayer_StartFailureLeavesPaused(t *testing.T) {
	p, backend, _ := newTestPlayer(t)
	backend.err = errors.New("device busy")

	if playing, err := p.Toggle(); err == nil || playing {
		t.Errorf("Toggle() = %v, %v; want error", playing, err)
	}
	if p.Playing() {
		t.Error("player should stay paused")
	}
}

func TestPlayer_Close(t *testing.T) {
	p, backend, _ := newTestPlayer(t)
	p.Toggle()

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !backend.closed {
		t.Error("backend not closed")
	}
	if _, err := p.Toggle(); !errors.Is(err, ErrClosed) {
		t.Errorf("Toggle after Close = %v, want ErrClosed", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestToneBackend(t *testing.T) {
	var out bytes.Buffer
	ended := make(chan uint64, 2)
	b := NewToneBackend(&out, 20*time.Millisecond, func(token uint64) { ended <- token })

	token, err := b.Start("x", 0, 2.0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case got := <-ended:
		if got != token {
			t.Errorf("end token = %d, want %d", got, token)
		}
	case <-time.After(time.Second):
		t.Fatal("tone never ended")
	}
	if out.String() != "\a" {
		t.Errorf("output = %q, want bell", out.String())
	}

	// A stopped tone never reports an end.
	if _, err := b.Start("x", 0, 1.0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	b.Stop()
	select {
	case <-ended:
		t.Error("stopped tone reported an end")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewBackend(t *testing.T) {
	for _, kind := range []string{"", "none", "NONE"} {
		b, err := NewBackend(kind, nil, nil)
		if err != nil {
			t.Fatalf("NewBackend(%q): %v", kind, err)
		}
		if _, ok := b.(Silent); !ok {
			t.Errorf("NewBackend(%q) = %T, want Silent", kind, b)
		}
	}
	if b, err := NewBackend("bell", nil, nil); err != nil {
		t.Errorf("bell: %v", err)
	} else if _, ok := b.(*ToneBackend); !ok {
		t.Errorf("bell = %T", b)
	}
	if b, err := NewBackend("auto", nil, nil); err != nil || b == nil {
		t.Errorf("auto should always yield a backend: %v", err)
	}
	if _, err := NewBackend("winamp", nil, nil); err == nil {
		t.Error("expected error for unknown player")
	}
}

func TestProcessBackend_Args(t *testing.T) {
	mpv := &ProcessBackend{name: BackendMPV}
	got := mpv.Args("a.mp3", 1500*time.Millisecond, 1.5)
	want := []string{"--no-video", "--really-quiet", "--start=1.50", "--speed=1.5", "a.mp3"}
	if len(got) != len(want) {
		t.Fatalf("Args = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}

	ff := &ProcessBackend{name: BackendFFPlay}
	args := ff.Args("a.mp3", 0, 0.5)
	if args[len(args)-2] != "atempo=0.5" {
		t.Errorf("ffplay args = %v", args)
	}
}
