// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/casefile-tui/internal/gate"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
)

// =============================================================================
// LOCK BANNER
// =============================================================================

// LockBanner replaces the form while a lock countdown runs, or permanently
// once a fixed-cutoff gate has denied access.
type LockBanner struct {
	visible   bool
	denied    bool
	remaining int // seconds
	total     int // seconds at lock start

	spinner  spinner.Model
	progress progress.Model

	width int
	theme *styles.Theme
}

// NewLockBanner creates a hidden banner.
func NewLockBanner(theme *styles.Theme) LockBanner {
	sp := spinner.New(
		spinner.WithSpinner(styles.LockSpinner.Spinner()),
		spinner.WithStyle(theme.LockTime),
	)
	bar := progress.New(
		progress.WithSolidFill(styles.Amber.Dark),
		progress.WithoutPercentage(),
	)
	return LockBanner{spinner: sp, progress: bar, width: 60, theme: theme}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Show displays a countdown of total seconds with remaining left. The
// returned command starts the spinner when the banner was hidden.
func (b *LockBanner) Show(remaining, total int) tea.Cmd {
	wasVisible := b.visible
	b.visible = true
	b.denied = false
	b.total = total
	if b.total < remaining {
		b.total = remaining
	}
	b.remaining = remaining
	if wasVisible {
		return nil
	}
	return b.spinner.Tick
}

// ShowDenied displays the permanent denial banner.
func (b *LockBanner) ShowDenied() {
	b.visible = true
	b.denied = true
	b.remaining = 0
}

// SetRemaining updates the countdown. Zero hides a countdown banner.
func (b *LockBanner) SetRemaining(remaining int) {
	if b.denied {
		return
	}
	b.remaining = remaining
	if remaining <= 0 {
		b.visible = false
	}
}

// Hide hides the banner.
func (b *LockBanner) Hide() {
	b.visible = false
	b.denied = false
}

// SetWidth sets the banner width.
func (b *LockBanner) SetWidth(width int) {
	b.width = width
}

// IsVisible returns whether the banner is showing.
func (b LockBanner) IsVisible() bool { return b.visible }

// IsDenied returns whether the banner shows the permanent denial.
func (b LockBanner) IsDenied() bool { return b.denied }

// Remaining returns the seconds left on the countdown.
func (b LockBanner) Remaining() int { return b.remaining }

// Percent returns how much of the lock has elapsed, from 0 to 1.
func (b LockBanner) Percent() float64 {
	if b.total <= 0 {
		return 1
	}
	return float64(b.total-b.remaining) / float64(b.total)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update advances the spinner while the countdown is visible.
func (b LockBanner) Update(msg tea.Msg) (LockBanner, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return b, nil
	}
	if !b.visible || b.denied {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return b, cmd
}

// View renders the banner.
func (b LockBanner) View() string {
	if !b.visible {
		return ""
	}

	width := b.width
	if width < 30 {
		width = 30
	}
	inner := width - b.theme.LockBanner.GetHorizontalFrameSize()

	var parts []string
	if b.denied {
		parts = append(parts,
			styles.RenderError("Access denied"),
			"",
			b.theme.Muted.Render("The attempt limit was reached. This session accepts no more entries."),
		)
	} else {
		b.progress.Width = inner
		parts = append(parts,
			b.spinner.View()+" "+styles.StatusIndicators.Locked+" Too many attempts",
			"",
			"Try again in "+b.theme.LockTime.Render(gate.FormatCountdown(b.remaining)),
			b.progress.ViewAs(b.Percent()),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return b.theme.LockBanner.Width(width).Render(content)
}
