// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/casefile-tui/internal/audio"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// SpeedControl is the playback speed overlay.
type SpeedControl struct {
	visible bool
	rate    float64

	width  int
	height int
	theme  *styles.Theme
}

// NewSpeedControl creates a hidden overlay at the default rate.
func NewSpeedControl(theme *styles.Theme) SpeedControl {
	return SpeedControl{rate: audio.DefaultRate, theme: theme}
}

// Open shows the overlay.
func (s *SpeedControl) Open() { s.visible = true }

// Close hides the overlay.
func (s *SpeedControl) Close() { s.visible = false }

// Toggle flips visibility and returns the new state.
func (s *SpeedControl) Toggle() bool {
	s.visible = !s.visible
	return s.visible
}

// IsVisible returns whether the overlay is open.
func (s SpeedControl) IsVisible() bool { return s.visible }

// SetRate records the rate the player accepted.
func (s *SpeedControl) SetRate(rate float64) { s.rate = rate }

// Rate returns the displayed rate.
func (s SpeedControl) Rate() float64 { return s.rate }

// SetSize sets the area the overlay is centered in.
func (s *SpeedControl) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// View renders the overlay centered in its area, or "" when closed.
func (s SpeedControl) View() string {
	if !s.visible {
		return ""
	}

	percent := (s.rate - audio.MinRate) / (audio.MaxRate - audio.MinRate) * 100
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.theme.Label.Render("Playback speed"),
		"",
		"- "+s.theme.SpeedValue.Render(util.FormatRate(s.rate))+" +",
		s.theme.Muted.Render(styles.RenderProgressBar(20, percent)),
		"",
		s.theme.Muted.Render(util.FormatRate(audio.MinRate)+" to "+util.FormatRate(audio.MaxRate)+"  |  +/- adjust  esc close"),
	)
	box := s.theme.SpeedOverlay.Render(content)

	if s.width <= 0 || s.height <= 0 {
		return box
	}
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, box)
}
