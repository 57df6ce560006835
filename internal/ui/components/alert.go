// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/casefile-tui/internal/gate"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
)

// Alert shows the outcome of the last submission. An empty alert renders
// nothing.
type Alert struct {
	alert *gate.Alert
	width int
	theme *styles.Theme
}

// NewAlert creates an empty Alert.
func NewAlert(theme *styles.Theme) Alert {
	return Alert{theme: theme}
}

// Set replaces the alert; nil clears it.
func (a *Alert) Set(alert *gate.Alert) {
	if alert == nil {
		a.alert = nil
		return
	}
	cp := *alert
	a.alert = &cp
}

// SetWidth sets the wrap width.
func (a *Alert) SetWidth(width int) {
	a.width = width
}

// Visible reports whether there is anything to show.
func (a Alert) Visible() bool {
	return a.alert != nil && a.alert.Text != ""
}

// View renders the alert with its status indicator.
func (a Alert) View() string {
	if !a.Visible() {
		return ""
	}

	style := a.theme.AlertError
	indicator := styles.StatusIndicators.Error
	if a.alert.Kind == gate.AlertSuccess {
		style = a.theme.AlertSuccess
		indicator = styles.StatusIndicators.Success
	}
	if a.width > 0 {
		style = style.Width(a.width)
	}
	return style.Render(indicator + " " + a.alert.Text)
}
