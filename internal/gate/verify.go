// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"strings"
	"time"
	"unicode"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// CodeVerifier decides whether a trimmed, normalized access code is correct.
type CodeVerifier interface {
	Verify(code string, now time.Time) bool
}

// StaticCode compares against a fixed code.
type StaticCode struct {
	Code string
	Mode CodeComparison
}

// Verify implements CodeVerifier.
func (s StaticCode) Verify(code string, _ time.Time) bool {
	if s.Mode == CompareCaseInsensitive {
		return strings.EqualFold(code, s.Code)
	}
	return code == s.Code
}

// TOTPCode accepts the current RFC 6238 passcode for Secret.
type TOTPCode struct {
	Secret string
	// Skew is the number of 30s periods tolerated either side (default 1).
	Skew uint
}

// Verify implements CodeVerifier.
func (t TOTPCode) Verify(code string, now time.Time) bool {
	skew := t.Skew
	if skew == 0 {
		skew = 1
	}
	ok, err := totp.ValidateCustom(code, t.Secret, now.UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// =============================================================================
// DIGIT NORMALIZATION
// =============================================================================

// digitValue returns the value of a decimal digit in any script, or -1.
// Decimal digits are encoded as contiguous runs of ten starting at zero, so
// the value is the offset from the start of the run.
func digitValue(r rune) rune {
	if !unicode.Is(unicode.Nd, r) {
		return -1
	}
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return (r - lo) % 10
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi && rg.Stride == 1 {
			return (r - lo) % 10
		}
	}
	return -1
}

func foldDigit(r rune) rune {
	if r < 0x80 {
		return r
	}
	if v := digitValue(r); v >= 0 {
		return '0' + v
	}
	return r
}

// NormalizeDigits folds decimal digits of every script to ASCII, so
// "۰۹۱۶" matches "0916". Letters and other characters are left alone.
func NormalizeDigits(s string) string {
	out, _, err := transform.String(runes.Map(foldDigit), s)
	if err != nil {
		return s
	}
	return out
}
