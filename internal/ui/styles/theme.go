// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the panel.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	Mode         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// CONTAINER STYLES
	// ==========================================================================

	App   lipgloss.Style
	Panel lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Badge       lipgloss.Style
	Subtitle    lipgloss.Style

	// ==========================================================================
	// FORM STYLES
	// ==========================================================================

	Label        lipgloss.Style
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Example      lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style

	// ==========================================================================
	// ALERT STYLES
	// ==========================================================================

	AlertSuccess lipgloss.Style
	AlertError   lipgloss.Style
	AlertInfo    lipgloss.Style
	LockBanner   lipgloss.Style
	LockTime     lipgloss.Style

	// ==========================================================================
	// AUDIO STYLES
	// ==========================================================================

	TrackButton       lipgloss.Style
	TrackButtonActive lipgloss.Style
	SpeedOverlay      lipgloss.Style
	SpeedValue        lipgloss.Style

	// ==========================================================================
	// AUDIT LIST STYLES
	// ==========================================================================

	LogBox     lipgloss.Style
	LogSuccess lipgloss.Style
	LogFailure lipgloss.Style
	LogMeta    lipgloss.Style
	Locked     lipgloss.Style

	// ==========================================================================
	// FOOTER STYLES
	// ==========================================================================

	Link         lipgloss.Style
	Muted        lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a theme for the given mode. "dark" and "light" force the
// background; anything else detects it from the terminal.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	mode = strings.ToLower(strings.TrimSpace(mode))
	var isDark bool
	switch mode {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		mode = ModeAuto
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(1, 2)
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	// Header
	t.Header = lipgloss.NewStyle().MarginBottom(1)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)
	t.Badge = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Magenta).
		Padding(0, 1).
		MarginRight(1)
	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Form
	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputFocused = t.Input.
		BorderForeground(Magenta)
	t.Example = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.Button = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceDim).
		Padding(0, 2)
	t.ButtonActive = t.Button.
		Bold(true).
		Foreground(TextInverse).
		Background(Magenta)

	// Alerts
	alert := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		Padding(0, 1)
	t.AlertSuccess = alert.
		Foreground(SuccessHighContrast).
		BorderForeground(Emerald)
	t.AlertError = alert.
		Foreground(ErrorHighContrast).
		BorderForeground(Rose)
	t.AlertInfo = alert.
		Foreground(InfoHighContrast).
		BorderForeground(Cyan)
	t.LockBanner = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Foreground(WarningHighContrast).
		Padding(0, 2)
	t.LockTime = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	// Audio
	t.TrackButton = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.TrackButtonActive = t.TrackButton.
		Bold(true).
		Foreground(TextPrimary)
	t.SpeedOverlay = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Background(SurfaceDim).
		Padding(1, 3).
		Align(lipgloss.Center)
	t.SpeedValue = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Audit list
	t.LogBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.LogSuccess = lipgloss.NewStyle().Foreground(SuccessHighContrast)
	t.LogFailure = lipgloss.NewStyle().Foreground(ErrorHighContrast)
	t.LogMeta = lipgloss.NewStyle().Foreground(TextMuted)
	t.Locked = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Footer
	t.Link = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
}

// TrackStyle returns the track button style tinted with the track's color.
func (t *Theme) TrackStyle(id string, active bool) lipgloss.Style {
	c := TrackColor(id)
	if active {
		return t.TrackButtonActive.BorderForeground(c).Foreground(c)
	}
	return t.TrackButton
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// ContentWidth is the usable width inside the panel border and padding.
func (t *Theme) ContentWidth() int {
	w := t.Width - t.App.GetHorizontalFrameSize() - t.Panel.GetHorizontalFrameSize()
	if w < 20 {
		return 20
	}
	return w
}
