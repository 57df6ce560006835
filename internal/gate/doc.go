// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate implements the case-file access gate: a phone number and
// access code form with attempt counting and lockout.
//
// The transitions are pure functions. Evaluate handles a submission and
// Advance handles one countdown second. Gate wraps them with a mutex, an
// audit recorder and an optional self-driving Countdown.
//
// Two lockout policies exist. PolicyEscalating locks the panel for
// LockStep*group after every MaxAttempts-th failure (5, 10, 15 minutes with
// the defaults). PolicyFixedCutoff stops evaluating once MaxAttempts
// failures are reached. Validation outcomes are reported as Kind values,
// never as errors.
package gate
