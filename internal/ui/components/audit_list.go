// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/casefile-tui/internal/audit"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// =============================================================================
// AUDIT LIST
// =============================================================================

// LockedNote is shown in place of the log until access is granted.
const LockedNote = "The link and attempt log appear after a correct entry."

// AuditList shows recorded attempts, newest first, in a scrollable box.
type AuditList struct {
	entries  []audit.Entry
	unlocked bool

	vp    viewport.Model
	width int
	theme *styles.Theme
}

// NewAuditList creates a locked list.
func NewAuditList(theme *styles.Theme) AuditList {
	return AuditList{
		vp:    viewport.New(60, 8),
		width: 60,
		theme: theme,
	}
}

// SetEntries replaces the listed entries.
func (l *AuditList) SetEntries(entries []audit.Entry) {
	l.entries = entries
	l.refresh()
}

// Unlock reveals the list.
func (l *AuditList) Unlock() {
	l.unlocked = true
	l.refresh()
}

// Unlocked reports whether the list is revealed.
func (l AuditList) Unlocked() bool { return l.unlocked }

// Len returns the number of listed entries.
func (l AuditList) Len() int { return len(l.entries) }

// SetSize sets the outer box size.
func (l *AuditList) SetSize(width, height int) {
	l.width = width
	frameW := l.theme.LogBox.GetHorizontalFrameSize()
	frameH := l.theme.LogBox.GetVerticalFrameSize()
	l.vp.Width = max(width-frameW, 10)
	l.vp.Height = max(height-frameH, 1)
	l.refresh()
}

// PageUp scrolls one page toward newer entries.
func (l *AuditList) PageUp() { l.vp.ViewUp() }

// PageDown scrolls one page toward older entries.
func (l *AuditList) PageDown() { l.vp.ViewDown() }

// AtTop reports whether the newest entry is in view.
func (l AuditList) AtTop() bool { return l.vp.AtTop() }

func (l *AuditList) refresh() {
	if !l.unlocked {
		l.vp.SetContent("")
		return
	}
	if len(l.entries) == 0 {
		l.vp.SetContent(l.theme.Muted.Render("No attempts recorded."))
		return
	}
	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = l.formatEntry(e)
	}
	l.vp.SetContent(strings.Join(lines, "\n"))
}

// formatEntry renders "phone · success  CODE  timestamp" fitted to the box.
func (l *AuditList) formatEntry(e audit.Entry) string {
	width := l.vp.Width
	stamp := e.Timestamp.Format("2006-01-02 15:04:05")

	status := l.theme.LogFailure.Render(styles.StatusIndicators.Error + " fail")
	if e.Success {
		status = l.theme.LogSuccess.Render(styles.StatusIndicators.Success + " success")
	}

	// Leave room for the status and timestamp, split the rest between
	// phone and code.
	fixed := lipgloss.Width(status) + len(stamp) + 7
	room := width - fixed
	if room < 8 {
		return status + " " + util.TruncateWidth(e.Phone, max(width-lipgloss.Width(status)-1, 1))
	}
	phoneW := room / 2
	codeW := room - phoneW

	return util.PadWidth(e.Phone, phoneW) + " · " + status + "  " +
		util.PadWidth(e.Code, codeW) + "  " + l.theme.LogMeta.Render(stamp)
}

// View renders the list, or the locked note before access.
func (l AuditList) View() string {
	if !l.unlocked {
		return l.theme.Locked.Width(l.width).Render(styles.StatusIndicators.Locked + " " + LockedNote)
	}
	return l.theme.LogBox.Render(l.vp.View())
}
