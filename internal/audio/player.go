// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Player tracks the selected track, play state, rate and position, and
// drives a Backend accordingly.
type Player struct {
	mu      sync.Mutex
	tracks  []Track
	backend Backend
	now     func() time.Time

	current int
	playing bool
	rate    float64
	closed  bool
	token   uint64 // backend token of the running playback

	// Position is offset plus wall time since startedAt scaled by rate.
	offset    time.Duration
	startedAt time.Time
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithRate sets the initial rate (clamped).
func WithRate(r float64) PlayerOption {
	return func(p *Player) {
		p.rate = ClampRate(r)
	}
}

// WithPlayerClock overrides time.Now.
func WithPlayerClock(now func() time.Time) PlayerOption {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPlayer creates a paused player on the first track. A nil backend plays
// silently.
func NewPlayer(tracks []Track, backend Backend, opts ...PlayerOption) (*Player, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	if backend == nil {
		backend = Silent{}
	}
	p := &Player{
		tracks:  append([]Track(nil), tracks...),
		backend: backend,
		now:     time.Now,
		rate:    DefaultRate,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Tracks returns the track list.
func (p *Player) Tracks() []Track {
	return append([]Track(nil), p.tracks...)
}

// Current returns the selected track.
func (p *Player) Current() Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks[p.current]
}

// Playing reports whether playback is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Rate returns the playback rate.
func (p *Player) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// Position returns the elapsed media time of the current track.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) positionLocked() time.Duration {
	if !p.playing {
		return p.offset
	}
	elapsed := p.now().Sub(p.startedAt)
	return p.offset + time.Duration(float64(elapsed)*p.rate)
}

// Select switches track. The position resets; playback resumes on the new
// track if it was playing. Selecting the current track does nothing.
func (p *Player) Select(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	idx := -1
	for i, t := range p.tracks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	if idx == p.current {
		return nil
	}

	p.current = idx
	p.offset = 0
	log.Printf("AUDIO_SELECT | track=%s playing=%t", id, p.playing)
	if p.playing {
		return p.startLocked()
	}
	return nil
}

// Next selects the track after the current one, wrapping around.
func (p *Player) Next() error {
	p.mu.Lock()
	id := p.tracks[(p.current+1)%len(p.tracks)].ID
	p.mu.Unlock()
	return p.Select(id)
}

// Toggle flips between playing and paused and returns the new state.
func (p *Player) Toggle() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrClosed
	}

	if p.playing {
		p.offset = p.positionLocked()
		p.playing = false
		p.token = 0
		if err := p.backend.Stop(); err != nil {
			return false, fmt.Errorf("failed to stop playback: %w", err)
		}
		log.Printf("AUDIO_PAUSE | track=%s at=%s", p.tracks[p.current].ID, p.offset.Round(time.Second))
		return false, nil
	}

	if err := p.startLocked(); err != nil {
		return false, err
	}
	log.Printf("AUDIO_PLAY | track=%s rate=%.1f at=%s", p.tracks[p.current].ID, p.rate, p.offset.Round(time.Second))
	return true, nil
}

// SetRate clamps r and applies it without resetting position or play state.
// It returns the applied rate.
func (p *Player) SetRate(r float64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.rate, ErrClosed
	}

	r = ClampRate(r)
	if r == p.rate {
		return r, nil
	}
	if !p.playing {
		p.rate = r
		return r, nil
	}

	// Fold elapsed time at the old rate into the offset first.
	p.offset = p.positionLocked()
	p.startedAt = p.now()
	p.rate = r

	if rs, ok := p.backend.(RateSetter); ok {
		if err := rs.SetRate(r); err != nil {
			return r, fmt.Errorf("failed to set rate: %w", err)
		}
		return r, nil
	}
	token, err := p.backend.Start(p.tracks[p.current].Source, p.offset, r)
	if err != nil {
		p.playing = false
		p.token = 0
		return r, fmt.Errorf("failed to restart playback: %w", err)
	}
	p.token = token
	return r, nil
}

// Faster raises the rate by one step.
func (p *Player) Faster() (float64, error) {
	return p.SetRate(p.Rate() + RateStep)
}

// Slower lowers the rate by one step.
func (p *Player) Slower() (float64, error) {
	return p.SetRate(p.Rate() - RateStep)
}

// Ended records that the playback started with token finished on its own:
// playback stops and the position rewinds. Notifications for a playback that
// was since paused or replaced are ignored. It reports whether the end applied.
func (p *Player) Ended(token uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || token != p.token {
		log.Printf("AUDIO_ENDED_STALE | track=%s token=%d current=%d", p.tracks[p.current].ID, token, p.token)
		return false
	}
	p.playing = false
	p.offset = 0
	p.token = 0
	log.Printf("AUDIO_ENDED | track=%s", p.tracks[p.current].ID)
	return true
}

// Close stops playback and releases the backend.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.playing = false
	p.token = 0
	return p.backend.Close()
}

func (p *Player) startLocked() error {
	t := p.tracks[p.current]
	token, err := p.backend.Start(t.Source, p.offset, p.rate)
	if err != nil {
		p.playing = false
		p.token = 0
		return fmt.Errorf("failed to play %s: %w", t.ID, err)
	}
	p.playing = true
	p.token = token
	p.startedAt = p.now()
	return nil
}
