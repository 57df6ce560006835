// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for casefile.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - GateConfig: credential pair, attempt limit, lockout policy
//   - AuditConfig: in-memory log size, audit file, SQLite archive
//   - AudioConfig: track list and player backend
//   - UIConfig: panel text, theme, briefing and link
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CASEFILE_*)
//   - ~/.casefile/config.toml (or $CASEFILE_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	policy := cfg.Gate.LockoutPolicy
package config
