// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/casefile-tui/internal/ui/styles"
)

// View renders the panel. The speed overlay replaces the whole view while open.
func (m Model) View() string {
	if m.speed.IsVisible() {
		return m.speed.View()
	}

	sections := []string{m.header.View()}

	if !m.granted {
		sections = append(sections, m.renderForm())
	}
	if m.alert.Visible() {
		sections = append(sections, m.alert.View())
	}
	if m.sess.Player() != nil {
		sections = append(sections, m.renderSection("Music", m.tracks.View()))
	}
	sections = append(sections, m.renderLogs())

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	panel := m.theme.Panel.Render(body)
	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, panel, m.renderFooter()))
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (m Model) renderForm() string {
	if m.banner.IsVisible() {
		return m.banner.View() + "\n"
	}

	cfg := m.sess.Config()
	var b strings.Builder
	b.WriteString(m.renderField("Phone number", m.phone.View(), cfg.UI.ExamplePhone, m.focus == FieldPhone))
	b.WriteString("\n")
	b.WriteString(m.renderField("Access code", m.code.View(), cfg.UI.ExampleCode, m.focus == FieldCode))
	b.WriteString("\n")

	attempts := fmt.Sprintf("Attempts %d / %d", m.attempts, m.sess.Gate().Config().MaxAttempts)
	submit := m.theme.ButtonActive.Render("Submit")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, submit, "  ", m.theme.Muted.Render(attempts)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderField(label, input, example string, focused bool) string {
	style := m.theme.Input
	if focused {
		style = m.theme.InputFocused
	}
	lines := []string{m.theme.Label.Render(label), style.Render(input)}
	if example != "" {
		lines = append(lines, m.theme.Example.Render("e.g. "+example))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderSection(title, body string) string {
	if body == "" {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, "", m.theme.Label.Render(title), body)
}

// renderLogs shows the locked note before access, then the access note,
// briefing, link and attempt list.
func (m Model) renderLogs() string {
	if !m.granted {
		return m.renderSection("Logs", m.logs.View())
	}

	brief := m.sess.Briefing()
	parts := []string{styles.RenderSuccess("Access activated")}
	if rendered := strings.TrimSpace(brief.Rendered()); rendered != "" {
		parts = append(parts, rendered)
	}
	if link := brief.Link(); link != "" {
		parts = append(parts, m.theme.Muted.Render("Link: ")+m.theme.Link.Render(link)+
			m.theme.Muted.Render("  (C-y to copy)"))
	}
	parts = append(parts, "", m.theme.Label.Render("Attempt log"), m.logs.View())
	return m.renderSection("Logs", lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderFooter() string {
	lines := []string{}
	if m.status != "" {
		lines = append(lines, m.theme.Muted.Render(m.status))
	}
	lines = append(lines, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
