// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/casefile-tui/internal/audit"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxAttempts is the number of failures per lockout group.
	DefaultMaxAttempts = 3

	// DefaultLockStep is the lock duration added per completed failure group.
	DefaultLockStep = 5 * time.Minute

	// DefaultTickInterval is the countdown resolution.
	DefaultTickInterval = time.Second
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid gate config")

// =============================================================================
// POLICIES
// =============================================================================

// LockoutPolicy selects how repeated failures are punished.
type LockoutPolicy string

const (
	// PolicyEscalating locks for LockStep*group after every MaxAttempts-th failure.
	PolicyEscalating LockoutPolicy = "escalating"
	// PolicyFixedCutoff denies permanently once MaxAttempts failures are reached.
	PolicyFixedCutoff LockoutPolicy = "fixed_cutoff"
)

// CodeComparison selects how the access code is matched.
type CodeComparison string

const (
	CompareExact           CodeComparison = "exact"
	CompareCaseInsensitive CodeComparison = "case_insensitive"
)

// ParseLockoutPolicy accepts snake, kebab and camel spellings.
func ParseLockoutPolicy(s string) (LockoutPolicy, error) {
	switch canonical(s) {
	case "", "escalating":
		return PolicyEscalating, nil
	case "fixedcutoff", "fixed":
		return PolicyFixedCutoff, nil
	}
	return "", fmt.Errorf("unknown lockout policy %q (want escalating or fixed_cutoff)", s)
}

// ParseCodeComparison accepts snake, kebab and camel spellings.
func ParseCodeComparison(s string) (CodeComparison, error) {
	switch canonical(s) {
	case "", "exact", "casesensitive":
		return CompareExact, nil
	case "caseinsensitive", "insensitive", "ignorecase":
		return CompareCaseInsensitive, nil
	}
	return "", fmt.Errorf("unknown code comparison %q (want exact or case_insensitive)", s)
}

func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Kind classifies the outcome of a submission.
type Kind int

const (
	// KindIgnored: access was already granted; nothing happened.
	KindIgnored Kind = iota
	KindSuccess
	KindCredentialMismatch
	KindLockedOut
	KindMaxAttemptsExceeded
)

// String returns the outcome name recorded in the audit log.
func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindSuccess:
		return "success"
	case KindCredentialMismatch:
		return "credential_mismatch"
	case KindLockedOut:
		return "locked_out"
	case KindMaxAttemptsExceeded:
		return "max_attempts_exceeded"
	default:
		return "unknown"
	}
}

// AlertKind is the severity of an alert.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
)

// Alert is the human-readable result of the last submission.
type Alert struct {
	Kind AlertKind
	Text string
}

// Result describes one Submit call.
type Result struct {
	Kind  Kind
	Alert *Alert
	// Entry is the audit record for this submission; nil when ignored.
	Entry *audit.Entry
	// LockEngaged reports that this submission started a new countdown.
	LockEngaged bool
}

// =============================================================================
// STATE
// =============================================================================

// State is the complete gate state. The zero value is a fresh session.
type State struct {
	Attempts      int
	LockRemaining int // seconds
	Granted       bool
	Denied        bool // terminal under PolicyFixedCutoff
	Alert         *Alert
}

// Locked reports whether a lock countdown is active.
func (s State) Locked() bool {
	return s.LockRemaining > 0
}

// AcceptsInput reports whether the form should accept a submission.
func (s State) AcceptsInput() bool {
	return !s.Granted && !s.Denied && s.LockRemaining == 0
}

// =============================================================================
// CONFIG
// =============================================================================

// Config is fixed for the lifetime of a Gate.
type Config struct {
	Phone string
	Code  string

	MaxAttempts int
	Policy      LockoutPolicy
	CodeMode    CodeComparison

	// LockStep is the escalation unit; MaxLock caps it (0 = uncapped).
	LockStep time.Duration
	MaxLock  time.Duration

	// NormalizeDigits folds non-ASCII decimal digits before comparison.
	NormalizeDigits bool

	// Verifier overrides the static code check when set.
	Verifier CodeVerifier
}

// DefaultConfig returns a Config for the given credential pair.
func DefaultConfig(phone, code string) Config {
	return Config{
		Phone:           phone,
		Code:            code,
		MaxAttempts:     DefaultMaxAttempts,
		Policy:          PolicyEscalating,
		CodeMode:        CompareExact,
		LockStep:        DefaultLockStep,
		NormalizeDigits: true,
	}
}

// Prepare fills zero values, trims the credentials, folds the phone digits
// when NormalizeDigits is set, and validates the result.
func Prepare(c Config) (Config, error) {
	c.Phone = strings.TrimSpace(c.Phone)
	c.Code = strings.TrimSpace(c.Code)
	if c.NormalizeDigits {
		c.Phone = NormalizeDigits(c.Phone)
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Policy == "" {
		c.Policy = PolicyEscalating
	}
	if c.CodeMode == "" {
		c.CodeMode = CompareExact
	}
	if c.LockStep == 0 {
		c.LockStep = DefaultLockStep
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Phone) == "" {
		problems = append(problems, "phone is empty")
	}
	if c.Verifier == nil && strings.TrimSpace(c.Code) == "" {
		problems = append(problems, "code is empty")
	}
	if c.MaxAttempts < 1 {
		problems = append(problems, fmt.Sprintf("max attempts must be >= 1, got %d", c.MaxAttempts))
	}
	if c.Policy != PolicyEscalating && c.Policy != PolicyFixedCutoff {
		problems = append(problems, fmt.Sprintf("unknown lockout policy %q", c.Policy))
	}
	if c.CodeMode != CompareExact && c.CodeMode != CompareCaseInsensitive {
		problems = append(problems, fmt.Sprintf("unknown code comparison %q", c.CodeMode))
	}
	if c.LockStep < time.Second {
		problems = append(problems, "lock step must be at least one second")
	}
	if c.MaxLock < 0 {
		problems = append(problems, "max lock must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// verifier returns the configured verifier or the static code check.
func (c Config) verifier() CodeVerifier {
	if c.Verifier != nil {
		return c.Verifier
	}
	return StaticCode{Code: c.Code, Mode: c.CodeMode}
}

// lockSeconds returns the lock for the given failure group.
func (c Config) lockSeconds(group int) int {
	d := c.LockStep * time.Duration(group)
	if c.MaxLock > 0 && d > c.MaxLock {
		d = c.MaxLock
	}
	return int(d / time.Second)
}
