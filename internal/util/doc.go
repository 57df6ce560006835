// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across casefile.
//
// String Utilities:
//   - TruncateWidth, PadWidth: display-width aware layout
//     for the audit list, built on go-runewidth
//
// Type Conversion:
//   - IntToString, FloatToStringPrec, FormatRate
//
// File Operations:
//   - WritePrivateFile: streamed, crash-safe 0600 writes used for
//     the config file and audit exports
package util
