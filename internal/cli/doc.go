// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the casefile command tree.
//
// Running casefile with no subcommand opens the access panel: the full-screen
// Bubble Tea panel on a terminal, or the line-mode shell when --plain is set
// or either end is not a terminal. The audit, config, totp and version
// subcommands work on the same configuration without opening a session.
package cli
