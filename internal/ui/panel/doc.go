// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package panel is the Bubble Tea model for the case file access panel.
//
// The model never owns state the gate or player already hold. After every
// key or session event it takes a snapshot (syncGate, syncAudio) and copies
// it into the components. Session events from background goroutines arrive
// as SessionEventMsg values sent through tea.Program.Send.
package panel
