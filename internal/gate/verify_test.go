// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09164568890", "09164568890"},
		{"۰۹۱۶۴۵۶۸۸۹۰", "09164568890"},  // Persian
		{"٠٩١٦٤٥٦٨٨٩٠", "09164568890"},  // Arabic-Indic
		{"０９１６４５６８８９０", "09164568890"}, // full-width
		{"SDMKL56YUU", "SDMKL56YUU"},
		{"ＳＤＭＫＬ５６ＹＵＵ", "ＳＤＭＫＬ56ＹＵＵ"}, // full-width letters stay
		{"ﬁ１", "ﬁ1"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeDigits(tc.in); got != tc.want {
			t.Errorf("NormalizeDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStaticCode(t *testing.T) {
	exact := StaticCode{Code: "ABC", Mode: CompareExact}
	require.True(t, exact.Verify("ABC", time.Time{}))
	require.False(t, exact.Verify("abc", time.Time{}))

	loose := StaticCode{Code: "ABC", Mode: CompareCaseInsensitive}
	require.True(t, loose.Verify("abc", time.Time{}))
	require.False(t, loose.Verify("abd", time.Time{}))
}

func TestTOTPCode(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "casefile", AccountName: "panel"})
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCode(key.Secret(), now)
	require.NoError(t, err)

	v := TOTPCode{Secret: key.Secret()}
	require.True(t, v.Verify(code, now))
	require.True(t, v.Verify(code, now.Add(30*time.Second)), "one period of skew")
	require.False(t, v.Verify(code, now.Add(10*time.Minute)))
	require.False(t, v.Verify("000000x", now))
}

func TestGate_TOTPVerifier(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "casefile", AccountName: "panel"})
	require.NoError(t, err)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCode(key.Secret(), now)
	require.NoError(t, err)

	cfg := Config{Phone: testPhone, Verifier: TOTPCode{Secret: key.Secret()}}
	g, err := New(cfg, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer g.Close()

	require.Equal(t, KindCredentialMismatch, g.Submit(testPhone, "123").Kind)
	require.Equal(t, KindSuccess, g.Submit(testPhone, code).Kind)
}
