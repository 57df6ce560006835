// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/casefile-tui/internal/audit"
)

// Evaluate is the submit transition. It never mutates s; the returned State
// replaces it. cfg should come from Prepare.
func Evaluate(cfg Config, s State, phone, code string, now time.Time) (State, Result) {
	if s.Granted {
		return s, Result{Kind: KindIgnored}
	}

	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	entry := audit.Entry{
		Phone:     phone,
		Code:      recordedCode(cfg, code),
		Timestamp: now,
	}
	if cfg.NormalizeDigits {
		phone = NormalizeDigits(phone)
		code = NormalizeDigits(code)
	}

	if s.LockRemaining > 0 {
		return reject(s, KindLockedOut, entry,
			fmt.Sprintf("Panel is locked - please wait %s.", FormatCountdown(s.LockRemaining)))
	}

	if cfg.Policy == PolicyFixedCutoff && (s.Denied || s.Attempts >= cfg.MaxAttempts) {
		s.Denied = true
		return reject(s, KindMaxAttemptsExceeded, entry,
			"Maximum attempts reached - access to the case file is denied.")
	}

	if phone == cfg.Phone && cfg.verifier().Verify(code, now) {
		s.Granted = true
		s.Attempts = 0
		s.LockRemaining = 0
		s.Denied = false
		s.Alert = &Alert{Kind: AlertSuccess, Text: "Access to the case file granted."}
		entry.Success = true
		entry.Outcome = KindSuccess.String()
		return s, Result{Kind: KindSuccess, Alert: s.Alert, Entry: &entry}
	}

	s.Attempts++
	s.Alert = &Alert{
		Kind: AlertError,
		Text: fmt.Sprintf("Incorrect phone number or code - attempt %d of %d.", s.Attempts, cfg.MaxAttempts),
	}
	entry.Outcome = KindCredentialMismatch.String()
	res := Result{Kind: KindCredentialMismatch, Alert: s.Alert, Entry: &entry}

	switch cfg.Policy {
	case PolicyEscalating:
		if s.Attempts%cfg.MaxAttempts == 0 {
			s.LockRemaining = cfg.lockSeconds(s.Attempts / cfg.MaxAttempts)
			res.LockEngaged = s.LockRemaining > 0
		}
	case PolicyFixedCutoff:
		if s.Attempts >= cfg.MaxAttempts {
			s.Denied = true
		}
	}
	return s, res
}

// Advance is the tick transition: one second off the lock, floored at zero.
// expired reports that this tick ended the lock.
func Advance(s State) (next State, expired bool) {
	if s.LockRemaining <= 0 {
		s.LockRemaining = 0
		return s, false
	}
	s.LockRemaining--
	return s, s.LockRemaining == 0
}

// FormatCountdown renders seconds as mm:ss. Minutes are not wrapped.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func reject(s State, kind Kind, entry audit.Entry, text string) (State, Result) {
	s.Alert = &Alert{Kind: AlertError, Text: text}
	entry.Outcome = kind.String()
	return s, Result{Kind: kind, Alert: s.Alert, Entry: &entry}
}

// recordedCode is the code as it appears in the audit log: upper-cased when
// the comparison ignores case, as entered otherwise.
func recordedCode(cfg Config, code string) string {
	if cfg.CodeMode == CompareCaseInsensitive {
		return strings.ToUpper(code)
	}
	return code
}
