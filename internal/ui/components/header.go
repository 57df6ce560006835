// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/casefile-tui/internal/ui/styles"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title block at the top of the panel.
type Header struct {
	Badge    string
	Title    string
	Subtitle string
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a Header with the default case file wording.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Badge:    "CASE FILE",
		Title:    "Confidential Case File",
		Subtitle: "Enter the phone number and access code to unlock the files.",
		Width:    80,
		theme:    theme,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	var title string
	if h.Badge != "" {
		badge := h.theme.Badge.Render(h.Badge)
		room := width - lipgloss.Width(badge)
		title = badge + h.theme.HeaderTitle.Render(util.TruncateWidth(h.Title, room))
	} else {
		title = h.theme.HeaderTitle.Render(util.TruncateWidth(h.Title, width))
	}

	if h.Subtitle == "" {
		return h.theme.Header.Render(title)
	}
	sub := h.theme.Subtitle.Width(width).Render(h.Subtitle)
	return h.theme.Header.Render(lipgloss.JoinVertical(lipgloss.Left, title, sub))
}
