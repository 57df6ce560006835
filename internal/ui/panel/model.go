// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"log"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/casefile-tui/internal/session"
	"github.com/jeranaias/casefile-tui/internal/ui/components"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
)

// Field identifies the focused form input.
type Field int

const (
	FieldPhone Field = iota
	FieldCode
)

// =============================================================================
// MESSAGES
// =============================================================================

// SessionEventMsg carries a session event into the update loop.
type SessionEventMsg struct {
	Event session.Event
}

// clipboardMsg reports the result of copying the access link.
type clipboardMsg struct {
	err error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the case file panel.
type Model struct {
	sess  *session.Session
	theme *styles.Theme
	keys  KeyMap
	help  help.Model

	phone textinput.Model
	code  textinput.Model
	focus Field

	header *components.Header
	alert  components.Alert
	banner components.LockBanner
	tracks components.TrackBar
	speed  components.SpeedControl
	logs   components.AuditList

	// lockTotal is the length of the current lock, for the progress bar.
	lockTotal int
	granted   bool
	denied    bool
	attempts  int
	status    string

	copyLink func(string) error

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyLink = fn }
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) { m.keys = k }
}

// New creates the panel for sess.
func New(sess *session.Session, theme *styles.Theme, opts ...Option) Model {
	cfg := sess.Config()

	phone := textinput.New()
	phone.Placeholder = cfg.UI.ExamplePhone
	phone.Prompt = ""
	phone.CharLimit = 32

	code := textinput.New()
	code.Placeholder = cfg.UI.ExampleCode
	code.Prompt = ""
	code.CharLimit = 64

	header := components.NewHeader(theme)
	header.Badge = cfg.UI.Badge
	header.Title = cfg.UI.Title

	m := Model{
		sess:     sess,
		theme:    theme,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		phone:    phone,
		code:     code,
		header:   header,
		alert:    components.NewAlert(theme),
		banner:   components.NewLockBanner(theme),
		speed:    components.NewSpeedControl(theme),
		logs:     components.NewAuditList(theme),
		copyLink: clipboard.WriteAll,
		width:    80,
		height:   24,
	}
	if p := sess.Player(); p != nil {
		m.tracks = components.NewTrackBar(theme, p.Tracks())
	} else {
		m.tracks = components.NewTrackBar(theme, nil)
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.phone.Focus()
	m.resize(m.width, m.height)
	m.syncGate()
	m.syncAudio()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Session returns the underlying session.
func (m Model) Session() *session.Session { return m.sess }

// Focused returns the focused field.
func (m Model) Focused() Field { return m.focus }

// Status returns the footer status line.
func (m Model) Status() string { return m.status }

// SpeedVisible reports whether the speed overlay is open.
func (m Model) SpeedVisible() bool { return m.speed.IsVisible() }

// =============================================================================
// STATE SYNC
// =============================================================================

// syncGate copies the gate snapshot into the view components.
func (m *Model) syncGate() tea.Cmd {
	st := m.sess.State()
	m.alert.Set(st.Alert)
	m.attempts = st.Attempts
	m.granted = st.Granted
	m.denied = st.Denied
	m.keys.Reset.SetEnabled(st.Denied)

	var cmd tea.Cmd
	switch {
	case st.Denied:
		m.banner.ShowDenied()
	case st.Locked():
		if !m.banner.IsVisible() {
			m.lockTotal = st.LockRemaining
		}
		cmd = m.banner.Show(st.LockRemaining, m.lockTotal)
	default:
		m.banner.Hide()
		m.lockTotal = 0
	}

	if st.AcceptsInput() {
		if !m.phone.Focused() && !m.code.Focused() {
			m.setFocus(FieldPhone)
		}
	} else {
		m.phone.Blur()
		m.code.Blur()
	}

	if st.Granted && !m.logs.Unlocked() {
		m.logs.Unlock()
	}
	m.logs.SetEntries(m.sess.Log().Entries())
	return cmd
}

// syncAudio copies the player state into the track bar and speed overlay.
func (m *Model) syncAudio() tea.Cmd {
	p := m.sess.Player()
	if p == nil {
		return nil
	}
	m.speed.SetRate(p.Rate())
	return m.tracks.SetState(p.Current().ID, p.Playing(), p.Rate())
}

func (m *Model) setFocus(f Field) {
	m.focus = f
	if f == FieldPhone {
		m.code.Blur()
		m.phone.Focus()
		return
	}
	m.phone.Blur()
	m.code.Focus()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	inner := m.theme.ContentWidth()
	m.header.SetWidth(inner)
	m.alert.SetWidth(inner)
	m.banner.SetWidth(inner)
	m.tracks.SetWidth(inner)
	m.speed.SetSize(width, height)
	m.help.Width = inner

	// The briefing is only visible after grant; before that the new width
	// is picked up by the render in Submit.
	if brief := m.sess.Briefing(); brief.SetWidth(inner) && m.granted {
		if _, err := brief.Render(); err != nil {
			log.Printf("PANEL_WARN | briefing render failed: %v", err)
		}
	}

	fieldWidth := inner - m.theme.Input.GetHorizontalFrameSize() - 1
	if fieldWidth > 40 {
		fieldWidth = 40
	}
	m.phone.Width = fieldWidth
	m.code.Width = fieldWidth

	logHeight := height / 3
	if logHeight < 5 {
		logHeight = 5
	}
	m.logs.SetSize(inner, logHeight)
}
