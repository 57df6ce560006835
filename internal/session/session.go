// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/casefile-tui/internal/audio"
	"github.com/jeranaias/casefile-tui/internal/audit"
	"github.com/jeranaias/casefile-tui/internal/briefing"
	"github.com/jeranaias/casefile-tui/internal/config"
	"github.com/jeranaias/casefile-tui/internal/gate"
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is something that happened outside a user action.
type Event int

const (
	// EventLockTick: one second came off the lock.
	EventLockTick Event = iota
	// EventLockExpired: the lock reached zero.
	EventLockExpired
	// EventAudioEnded: the current track finished on its own.
	EventAudioEnded
	// EventBriefingReloaded: the briefing file changed and was re-rendered.
	EventBriefingReloaded
)

func (e Event) String() string {
	switch e {
	case EventLockTick:
		return "lock_tick"
	case EventLockExpired:
		return "lock_expired"
	case EventAudioEnded:
		return "audio_ended"
	case EventBriefingReloaded:
		return "briefing_reloaded"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns everything one panel needs: the gate, its audit log and
// sinks, the music player, the briefing and the submit throttle.
type Session struct {
	id      string
	started time.Time
	cfg     *config.Config
	now     func() time.Time

	gate     *gate.Gate
	log      *audit.Log
	player   *audio.Player // nil when audio is disabled
	briefing *briefing.Briefing
	limiter  *rate.Limiter // nil when unthrottled

	notifyMu sync.RWMutex
	notify   func(Event)

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	notify       func(Event)
	backend      audio.Backend
	audioOut     io.Writer
	tickInterval time.Duration
	now          func() time.Time
}

// Option configures a Session.
type Option func(*options)

// WithNotify sets the event callback. It may be called from any goroutine.
func WithNotify(fn func(Event)) Option {
	return func(o *options) { o.notify = fn }
}

// WithBackend overrides the audio backend chosen from configuration.
func WithBackend(b audio.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithAudioOutput sets where the bell backend writes.
func WithAudioOutput(w io.Writer) Option {
	return func(o *options) { o.audioOut = w }
}

// WithTickInterval overrides the lock countdown interval.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) { o.tickInterval = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New opens a session for cfg. Sinks that fail to open are fatal; a briefing
// watcher that fails to start is only logged.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	o := options{tickInterval: gate.DefaultTickInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	gcfg, err := GateConfig(cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:      uuid.NewString(),
		started: o.now(),
		cfg:     cfg,
		now:     o.now,
		notify:  o.notify,
	}

	s.log = audit.NewLog(cfg.Audit.MaxEntries, audit.WithSessionID(s.id))
	if err := s.openSinks(); err != nil {
		s.log.Close()
		return nil, err
	}

	s.gate, err = gate.New(gcfg,
		gate.WithRecorder(s.log),
		gate.WithClock(o.now),
		gate.WithTicker(o.tickInterval, s.onTick),
	)
	if err != nil {
		s.log.Close()
		return nil, err
	}

	if cfg.Audio.Enabled {
		if err := s.openPlayer(o); err != nil {
			s.gate.Close()
			s.log.Close()
			return nil, err
		}
	}

	s.briefing = briefing.New(briefing.Options{
		Path:      cfg.UI.BriefingPath,
		Link:      cfg.UI.Link,
		Documents: cfg.UI.Documents,
		Style:     glamourStyle(cfg.UI.Theme),
	})
	if cfg.UI.BriefingPath != "" {
		if err := s.briefing.Watch(func() { s.emit(EventBriefingReloaded) }); err != nil {
			log.Printf("SESSION_WARN | briefing watch failed: %v", err)
		}
	}

	if cfg.Gate.SubmitRate > 0 {
		burst := cfg.Gate.SubmitBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Gate.SubmitRate), burst)
	}

	log.Printf("SESSION_START | id=%s policy=%s max_attempts=%d audio=%t",
		s.id, gcfg.Policy, gcfg.MaxAttempts, s.player != nil)
	return s, nil
}

func (s *Session) openSinks() error {
	if s.cfg.Audit.LogEnabled {
		sink, err := audit.OpenFileSink(s.cfg.AuditLogPath())
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		s.log.AddSink(sink)
	}
	if s.cfg.Audit.ArchiveEnabled {
		store, err := audit.OpenStore(s.cfg.ArchivePath())
		if err != nil {
			return fmt.Errorf("failed to open audit archive: %w", err)
		}
		s.log.AddSink(store)
	}
	return nil
}

func (s *Session) openPlayer(o options) error {
	backend := o.backend
	if backend == nil {
		b, err := audio.NewBackend(s.cfg.Audio.Player, o.audioOut, s.onAudioEnded)
		if err != nil {
			return fmt.Errorf("failed to create audio backend: %w", err)
		}
		backend = b
	}
	tracks := audio.TracksFromFiles(s.cfg.Audio.TrackDir, s.cfg.Audio.Tracks)
	player, err := audio.NewPlayer(tracks, backend, audio.WithRate(s.cfg.Audio.DefaultRate), audio.WithPlayerClock(o.now))
	if err != nil {
		backend.Close()
		return fmt.Errorf("failed to create player: %w", err)
	}
	s.player = player
	return nil
}

// GateConfig converts the [gate] section into a gate.Config.
func GateConfig(cfg *config.Config) (gate.Config, error) {
	policy, err := gate.ParseLockoutPolicy(cfg.Gate.LockoutPolicy)
	if err != nil {
		return gate.Config{}, err
	}
	mode, err := gate.ParseCodeComparison(cfg.Gate.CodeComparison)
	if err != nil {
		return gate.Config{}, err
	}

	gcfg := gate.Config{
		Phone:           cfg.Gate.Phone,
		Code:            cfg.Gate.Code,
		MaxAttempts:     cfg.Gate.MaxAttempts,
		Policy:          policy,
		CodeMode:        mode,
		LockStep:        time.Duration(cfg.Gate.LockStepSecs) * time.Second,
		MaxLock:         time.Duration(cfg.Gate.MaxLockSecs) * time.Second,
		NormalizeDigits: cfg.Gate.NormalizeDigits,
	}
	if cfg.Gate.CodeSource == "totp" {
		gcfg.Verifier = gate.TOTPCode{Secret: cfg.Gate.TOTPSecret}
	}
	return gate.Prepare(gcfg)
}

func glamourStyle(theme string) string {
	switch theme {
	case "light", "dark", "auto":
		return theme
	}
	return "notty"
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ID returns the session ID recorded on every audit entry.
func (s *Session) ID() string { return s.id }

// Started returns when the session was opened.
func (s *Session) Started() time.Time { return s.started }

// Config returns the configuration the session was opened with.
func (s *Session) Config() *config.Config { return s.cfg }

// Gate returns the access gate.
func (s *Session) Gate() *gate.Gate { return s.gate }

// Log returns the in-memory audit log.
func (s *Session) Log() *audit.Log { return s.log }

// Player returns the music player, or nil when audio is disabled.
func (s *Session) Player() *audio.Player { return s.player }

// Briefing returns the post-grant briefing.
func (s *Session) Briefing() *briefing.Briefing { return s.briefing }

// State returns a snapshot of the gate state.
func (s *Session) State() gate.State { return s.gate.Snapshot() }

// =============================================================================
// ACTIONS
// =============================================================================

// Submit passes a submission to the gate unless the throttle rejects it.
// ok is false for throttled submissions, which are neither evaluated nor
// audited.
func (s *Session) Submit(phone, code string) (res gate.Result, ok bool) {
	if s.limiter != nil && !s.limiter.AllowN(s.now(), 1) {
		log.Printf("SESSION_THROTTLED | id=%s", s.id)
		return gate.Result{}, false
	}

	res = s.gate.Submit(phone, code)
	if res.Kind == gate.KindSuccess {
		if _, err := s.briefing.Render(); err != nil {
			log.Printf("SESSION_WARN | briefing render failed: %v", err)
		}
	}
	return res, true
}

// Reset starts the gate over after a denial or lock. The attempt log is
// kept, and a granted session stays granted.
func (s *Session) Reset() gate.State {
	st := s.gate.Reset()
	log.Printf("SESSION_RESET | id=%s granted=%t", s.id, st.Granted)
	return st
}

// SetNotify replaces the event callback.
func (s *Session) SetNotify(fn func(Event)) {
	s.notifyMu.Lock()
	s.notify = fn
	s.notifyMu.Unlock()
}

func (s *Session) emit(e Event) {
	s.notifyMu.RLock()
	fn := s.notify
	s.notifyMu.RUnlock()
	if fn != nil {
		fn(e)
	}
}

func (s *Session) onTick(st gate.State) {
	if st.LockRemaining == 0 {
		s.emit(EventLockExpired)
		return
	}
	s.emit(EventLockTick)
}

func (s *Session) onAudioEnded(token uint64) {
	if s.player == nil || !s.player.Ended(token) {
		return
	}
	s.emit(EventAudioEnded)
}

// Close stops the countdown, audio and briefing watcher, then closes the
// audit sinks. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		s.gate.Close()
		if s.player != nil {
			if err := s.player.Close(); err != nil {
				errs = append(errs, fmt.Errorf("audio: %w", err))
			}
		}
		if err := s.briefing.Close(); err != nil {
			errs = append(errs, fmt.Errorf("briefing: %w", err))
		}
		if err := s.log.Close(); err != nil {
			errs = append(errs, fmt.Errorf("audit: %w", err))
		}
		s.closeErr = errors.Join(errs...)
		log.Printf("SESSION_END | id=%s duration=%s", s.id, FormatDuration(time.Since(s.started)))
	})
	return s.closeErr
}
