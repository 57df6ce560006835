// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual building blocks of the casefile panel.

Each component is a small value type with setters and a View method. The ones
that animate (LockBanner, TrackBar) also have an Update method that consumes
their own spinner ticks, so the panel can forward every message to them.

# Components

	Header       (header.go)        - Badge, title and subtitle
	Alert        (alert.go)         - Result of the last submission
	LockBanner   (lock_banner.go)   - Lock countdown with progress bar
	TrackBar     (track_bar.go)     - Track buttons and play state
	SpeedControl (speed_control.go) - Playback speed overlay
	AuditList    (audit_list.go)    - Scrollable attempt log, locked until access

# Usage

	theme := styles.NewTheme("auto")
	banner := components.NewLockBanner(theme)
	cmd := banner.Show(300, 300)
	...
	banner, cmd = banner.Update(msg)
*/
package components
