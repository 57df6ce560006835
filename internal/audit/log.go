// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"errors"
	"log"
	"sync"
)

// DefaultMaxEntries is the number of entries retained by a Log by default.
const DefaultMaxEntries = 200

// ErrClosed is returned when writing to a closed sink or store.
var ErrClosed = errors.New("audit: closed")

// Sink receives every entry appended to a Log.
type Sink interface {
	Write(e Entry) error
	Close() error
}

// Log is the capped, newest-first attempt log of one session.
// It is safe for concurrent use.
type Log struct {
	mu        sync.RWMutex
	entries   []Entry
	max       int
	sessionID string
	sinks     []Sink
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithSessionID stamps every appended entry with the given session ID.
func WithSessionID(id string) LogOption {
	return func(l *Log) {
		l.sessionID = id
	}
}

// WithSink adds a sink at construction time.
func WithSink(s Sink) LogOption {
	return func(l *Log) {
		if s != nil {
			l.sinks = append(l.sinks, s)
		}
	}
}

// NewLog creates a Log retaining at most max entries.
// A non-positive max selects DefaultMaxEntries.
func NewLog(max int, opts ...LogOption) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	l := &Log{
		max:     max,
		entries: make([]Entry, 0, max),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddSink registers an additional sink.
func (l *Log) AddSink(s Sink) {
	if s == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Append records e as the newest entry, dropping the oldest beyond the cap.
// Sink failures are logged and never returned; the in-memory log always wins.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	if e.SessionID == "" {
		e.SessionID = l.sessionID
	}
	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = e
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	sinks := make([]Sink, len(l.sinks))
	copy(sinks, l.sinks)
	l.mu.Unlock()

	for _, s := range sinks {
		if err := s.Write(e); err != nil {
			log.Printf("AUDIT_SINK_ERROR | sink=%T error=%v", s, err)
		}
	}
}

// Entries returns a copy of the retained entries, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns the newest entry.
func (l *Log) Latest() (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0], true
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Cap returns the maximum number of retained entries.
func (l *Log) Cap() int {
	return l.max
}

// Close closes every sink. The in-memory entries stay readable.
func (l *Log) Close() error {
	l.mu.Lock()
	sinks := l.sinks
	l.sinks = nil
	l.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
