// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/casefile-tui/internal/audio"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// =============================================================================
// TRACK BAR
// =============================================================================

// TrackBar shows one button per track, the play state and the current rate.
type TrackBar struct {
	tracks  []audio.Track
	current string
	playing bool
	rate    float64

	eq spinner.Model

	width int
	theme *styles.Theme
}

// NewTrackBar creates a TrackBar for tracks. The first track starts current.
func NewTrackBar(theme *styles.Theme, tracks []audio.Track) TrackBar {
	tb := TrackBar{
		tracks: tracks,
		rate:   audio.DefaultRate,
		eq: spinner.New(
			spinner.WithSpinner(styles.EqualizerSpinner.Spinner()),
			spinner.WithStyle(theme.SpeedValue),
		),
		width: 80,
		theme: theme,
	}
	if len(tracks) > 0 {
		tb.current = tracks[0].ID
	}
	return tb
}

// SetState updates the bar from the player. The returned command starts the
// equalizer when playback begins.
func (tb *TrackBar) SetState(current string, playing bool, rate float64) tea.Cmd {
	started := playing && !tb.playing
	tb.current = current
	tb.playing = playing
	tb.rate = rate
	if started {
		return tb.eq.Tick
	}
	return nil
}

// SetWidth sets the available width.
func (tb *TrackBar) SetWidth(width int) {
	tb.width = width
}

// Current returns the selected track ID.
func (tb TrackBar) Current() string { return tb.current }

// Playing reports whether the bar shows playback.
func (tb TrackBar) Playing() bool { return tb.playing }

// Update animates the equalizer while playing.
func (tb TrackBar) Update(msg tea.Msg) (TrackBar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok || !tb.playing {
		return tb, nil
	}
	var cmd tea.Cmd
	tb.eq, cmd = tb.eq.Update(msg)
	return tb, cmd
}

// View renders the buttons followed by the status line. Narrow widths stack
// the buttons.
func (tb TrackBar) View() string {
	if len(tb.tracks) == 0 {
		return ""
	}

	buttons := make([]string, 0, len(tb.tracks))
	for _, t := range tb.tracks {
		active := t.ID == tb.current
		label := t.Title
		if active && tb.playing {
			label = "> " + label
		}
		buttons = append(buttons, tb.theme.TrackStyle(t.ID, active).Render(label))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
	if lipgloss.Width(row) > tb.width {
		row = lipgloss.JoinVertical(lipgloss.Left, buttons...)
	}

	status := tb.theme.Muted.Render("[] stopped")
	if tb.playing {
		status = tb.eq.View() + " " + tb.theme.Label.Render("playing")
	}
	status += tb.theme.Muted.Render("  speed ") + tb.theme.SpeedValue.Render(util.FormatRate(tb.rate))

	return lipgloss.JoinVertical(lipgloss.Left, row, status)
}
