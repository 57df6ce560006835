// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/jeranaias/casefile-tui/internal/util"
)

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is a point-in-time summary of a session.
type Status struct {
	SessionID     string
	StartTime     time.Time
	Duration      time.Duration
	Attempts      int
	MaxAttempts   int
	LockRemaining int
	Granted       bool
	Denied        bool
	LogEntries    int
	Playing       bool
	Track         string
	Rate          float64
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	st := s.gate.Snapshot()
	status := Status{
		SessionID:     s.id,
		StartTime:     s.started,
		Duration:      s.now().Sub(s.started),
		Attempts:      st.Attempts,
		MaxAttempts:   s.gate.Config().MaxAttempts,
		LockRemaining: st.LockRemaining,
		Granted:       st.Granted,
		Denied:        st.Denied,
		LogEntries:    s.log.Len(),
	}
	if s.player != nil {
		status.Playing = s.player.Playing()
		status.Track = s.player.Current().ID
		status.Rate = s.player.Rate()
	}
	return status
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}
