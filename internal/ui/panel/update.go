// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"errors"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/casefile-tui/internal/gate"
	"github.com/jeranaias/casefile-tui/internal/session"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionEventMsg:
		return m.handleEvent(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.status = "Could not copy the link: " + msg.err.Error()
		} else {
			m.status = "Link copied to the clipboard."
		}
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.banner, cmd = m.banner.Update(msg)
		cmds = append(cmds, cmd)
		m.tracks, cmd = m.tracks.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	return m.updateInputs(msg)
}

// =============================================================================
// EVENT HANDLING
// =============================================================================

func (m Model) handleEvent(msg SessionEventMsg) (tea.Model, tea.Cmd) {
	switch msg.Event {
	case session.EventLockTick, session.EventLockExpired:
		cmd := m.syncGate()
		return m, cmd
	case session.EventAudioEnded:
		cmd := m.syncAudio()
		return m, cmd
	case session.EventBriefingReloaded:
		m.status = "Briefing updated."
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The speed overlay captures keys while open.
	if m.speed.IsVisible() {
		switch {
		case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Speed):
			m.speed.Close()
		case key.Matches(msg, m.keys.Faster):
			return m.changeRate(true)
		case key.Matches(msg, m.keys.Slower):
			return m.changeRate(false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Speed):
		if m.sess.Player() != nil {
			m.speed.Open()
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Play):
		return m.togglePlay()

	case key.Matches(msg, m.keys.NextTrack):
		return m.nextTrack()

	case key.Matches(msg, m.keys.CopyLink):
		return m.copyAccessLink()

	case key.Matches(msg, m.keys.PageUp):
		m.logs.PageUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.logs.PageDown()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		return m.startOver()
	}

	if !m.sess.State().AcceptsInput() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.PrevField):
		if m.focus == FieldPhone {
			m.setFocus(FieldCode)
		} else {
			m.setFocus(FieldPhone)
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == FieldPhone {
		m.phone, cmd = m.phone.Update(msg)
	} else {
		m.code, cmd = m.code.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	res, ok := m.sess.Submit(m.phone.Value(), m.code.Value())
	if !ok {
		m.status = "Too fast. Wait a moment before trying again."
		return m, nil
	}
	m.status = ""

	switch res.Kind {
	case gate.KindSuccess:
		m.code.SetValue("")
		m.phone.Blur()
		m.code.Blur()
	case gate.KindCredentialMismatch:
		m.code.SetValue("")
		m.setFocus(FieldCode)
	}

	cmd := m.syncGate()
	return m, cmd
}

// startOver clears a terminal denial and reopens the form.
func (m Model) startOver() (tea.Model, tea.Cmd) {
	m.sess.Reset()
	m.phone.Reset()
	m.code.Reset()
	cmd := m.syncGate()
	m.setFocus(FieldPhone)
	m.status = "Panel reset. Enter the phone number and code."
	return m, cmd
}

func (m Model) togglePlay() (tea.Model, tea.Cmd) {
	p := m.sess.Player()
	if p == nil {
		m.status = "Audio is disabled."
		return m, nil
	}
	if _, err := p.Toggle(); err != nil {
		m.status = "Playback failed: " + err.Error()
		log.Printf("PANEL_AUDIO_ERROR | error=%v", err)
	}
	cmd := m.syncAudio()
	return m, cmd
}

func (m Model) nextTrack() (tea.Model, tea.Cmd) {
	p := m.sess.Player()
	if p == nil {
		return m, nil
	}
	if err := p.Next(); err != nil {
		m.status = "Track change failed: " + err.Error()
		log.Printf("PANEL_AUDIO_ERROR | error=%v", err)
	}
	cmd := m.syncAudio()
	return m, cmd
}

func (m Model) changeRate(faster bool) (tea.Model, tea.Cmd) {
	p := m.sess.Player()
	if p == nil {
		return m, nil
	}
	var (
		rate float64
		err  error
	)
	if faster {
		rate, err = p.Faster()
	} else {
		rate, err = p.Slower()
	}
	if err != nil {
		m.status = "Speed change failed: " + err.Error()
	} else {
		m.status = "Speed " + util.FormatRate(rate)
	}
	cmd := m.syncAudio()
	return m, cmd
}

// errLinkLocked is reported when the link is copied before access.
var errLinkLocked = errors.New("the link is available after access is granted")

func (m Model) copyAccessLink() (tea.Model, tea.Cmd) {
	if !m.granted {
		return m, func() tea.Msg { return clipboardMsg{err: errLinkLocked} }
	}
	link := m.sess.Briefing().Link()
	copyFn := m.copyLink
	return m, func() tea.Msg {
		return clipboardMsg{err: copyFn(link)}
	}
}
