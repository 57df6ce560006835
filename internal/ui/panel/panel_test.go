// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/casefile-tui/internal/audio"
	"github.com/jeranaias/casefile-tui/internal/config"
	"github.com/jeranaias/casefile-tui/internal/session"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func newModel(t *testing.T, mutate func(*config.Config), opts ...Option) Model {
	t.Helper()
	t.Setenv("CASEFILE_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Gate.SubmitRate = 0
	cfg.Audio.Player = audio.BackendNone
	if mutate != nil {
		mutate(cfg)
	}

	sess, err := session.New(cfg, session.WithTickInterval(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return New(sess, styles.NewTheme("dark"), opts...)
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyType(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fill(t *testing.T, m Model, phone, code string) Model {
	t.Helper()
	m, _ = send(t, m, runes(phone))
	m, _ = send(t, m, keyType(tea.KeyTab))
	m, _ = send(t, m, runes(code))
	return m
}

// =============================================================================
// FORM TESTS
// =============================================================================

func TestPanel_InitialView(t *testing.T) {
	m := newModel(t, nil)
	require.NotNil(t, m.Init())
	require.Equal(t, FieldPhone, m.Focused())

	view := m.View()
	require.Contains(t, view, "CASE FILE")
	require.Contains(t, view, "Phone number")
	require.Contains(t, view, "Attempts 0 / 3")
	require.Contains(t, view, "after a correct entry")
	require.NotContains(t, view, "payamsoty")
}

func TestPanel_SuccessfulSubmit(t *testing.T) {
	m := newModel(t, nil)
	m = fill(t, m, "09164568890", "SDMKL56YUU")
	require.Equal(t, FieldCode, m.Focused())

	m, _ = send(t, m, keyType(tea.KeyEnter))
	require.True(t, m.Session().State().Granted)

	view := m.View()
	require.Contains(t, view, "Access activated")
	require.Contains(t, view, "https://t.me/payamsoty")
	require.Contains(t, view, "SDMKL56YUU")
	require.NotContains(t, view, "Phone number")
	require.Equal(t, 1, m.Session().Log().Len())

	// Further typing and submits are ignored.
	m, _ = send(t, m, runes("123"))
	m, _ = send(t, m, keyType(tea.KeyEnter))
	require.Equal(t, 1, m.Session().Log().Len())
}

func TestPanel_FailedSubmit(t *testing.T) {
	m := newModel(t, nil)
	m = fill(t, m, "09164568890", "WRONG")

	m, _ = send(t, m, keyType(tea.KeyEnter))
	require.Equal(t, FieldCode, m.Focused())
	require.Empty(t, m.code.Value(), "code is cleared after a failure")
	require.Equal(t, "09164568890", m.phone.Value())

	view := m.View()
	require.Contains(t, view, "attempt 1 of 3")
	require.Contains(t, view, "Attempts 1 / 3")
	require.Contains(t, view, "[X]")
}

func TestPanel_FocusCycles(t *testing.T) {
	m := newModel(t, nil)
	m, _ = send(t, m, keyType(tea.KeyTab))
	require.Equal(t, FieldCode, m.Focused())
	m, _ = send(t, m, keyType(tea.KeyShiftTab))
	require.Equal(t, FieldPhone, m.Focused())
}

// =============================================================================
// LOCK TESTS
// =============================================================================

func TestPanel_LockCountdown(t *testing.T) {
	m := newModel(t, func(c *config.Config) {
		c.Gate.MaxAttempts = 1
		c.Gate.LockStepSecs = 300
	})
	m = fill(t, m, "1", "x")

	m, cmd := send(t, m, keyType(tea.KeyEnter))
	require.NotNil(t, cmd, "lock should start the banner spinner")
	require.True(t, m.Session().State().Locked())
	require.Contains(t, m.View(), "05:00")
	require.NotContains(t, m.View(), "Phone number")

	// Typing is ignored while locked.
	m, _ = send(t, m, runes("999"))
	require.Equal(t, "1", m.phone.Value())

	m.Session().Gate().Tick()
	m, _ = send(t, m, SessionEventMsg{Event: session.EventLockTick})
	require.Contains(t, m.View(), "04:59")
}

func TestPanel_FixedCutoffDenied(t *testing.T) {
	m := newModel(t, func(c *config.Config) {
		c.Gate.MaxAttempts = 1
		c.Gate.LockoutPolicy = "fixed_cutoff"
	})
	m = fill(t, m, "1", "x")
	m, _ = send(t, m, keyType(tea.KeyEnter))

	require.True(t, m.Session().State().Denied)
	require.Contains(t, m.View(), "Access denied")
	require.Contains(t, m.View(), "start over")

	m, _ = send(t, m, keyType(tea.KeyCtrlR))
	require.False(t, m.Session().State().Denied)
	require.Equal(t, FieldPhone, m.Focused())
	require.Contains(t, m.View(), "Phone number")
	require.Contains(t, m.View(), "Attempts 0 / 1")
	require.Equal(t, 1, m.Session().Log().Len(), "the log survives a reset")

	m = fill(t, m, "09164568890", "SDMKL56YUU")
	m, _ = send(t, m, keyType(tea.KeyEnter))
	require.True(t, m.Session().State().Granted)
}

func TestPanel_ResetDisabledUntilDenied(t *testing.T) {
	m := newModel(t, func(c *config.Config) {
		c.Gate.MaxAttempts = 1
		c.Gate.LockStepSecs = 300
	})
	require.NotContains(t, m.View(), "start over")

	m = fill(t, m, "1", "x")
	m, _ = send(t, m, keyType(tea.KeyEnter))
	m, _ = send(t, m, keyType(tea.KeyCtrlR))
	require.True(t, m.Session().State().Locked(), "ctrl+r does not lift a countdown")
}

// =============================================================================
// AUDIO TESTS
// =============================================================================

func TestPanel_PlayAndTrack(t *testing.T) {
	m := newModel(t, nil)
	p := m.Session().Player()
	require.NotNil(t, p)

	m, _ = send(t, m, keyType(tea.KeyCtrlP))
	require.True(t, p.Playing())
	require.Contains(t, m.View(), "playing")

	m, _ = send(t, m, keyType(tea.KeyCtrlN))
	require.Equal(t, "music12.mp3", p.Current().ID)
	require.True(t, p.Playing(), "selecting a track keeps playing")

	m, _ = send(t, m, keyType(tea.KeyCtrlP))
	require.False(t, p.Playing())
	require.Contains(t, m.View(), "stopped")
}

func TestPanel_SpeedOverlay(t *testing.T) {
	m := newModel(t, nil)

	m, _ = send(t, m, keyType(tea.KeyCtrlS))
	require.True(t, m.SpeedVisible())
	require.Contains(t, m.View(), "Playback speed")

	m, _ = send(t, m, runes("+"))
	m, _ = send(t, m, runes("+"))
	require.InDelta(t, 1.2, m.Session().Player().Rate(), 1e-9)
	require.Equal(t, "Speed 1.2x", m.Status())

	m, _ = send(t, m, runes("-"))
	require.InDelta(t, 1.1, m.Session().Player().Rate(), 1e-9)

	// Keys typed in the overlay never reach the form.
	require.Empty(t, m.phone.Value())

	m, _ = send(t, m, keyType(tea.KeyEsc))
	require.False(t, m.SpeedVisible())
	require.Contains(t, m.View(), "1.1x")
}

func TestPanel_AudioDisabled(t *testing.T) {
	m := newModel(t, func(c *config.Config) { c.Audio.Enabled = false })

	m, _ = send(t, m, keyType(tea.KeyCtrlP))
	require.Equal(t, "Audio is disabled.", m.Status())

	m, _ = send(t, m, keyType(tea.KeyCtrlS))
	require.False(t, m.SpeedVisible())
	require.NotContains(t, m.View(), "Music")
}

// =============================================================================
// CLIPBOARD AND MISC
// =============================================================================

func TestPanel_CopyLink(t *testing.T) {
	var copied string
	m := newModel(t, nil, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))

	m, cmd := send(t, m, keyType(tea.KeyCtrlY))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())
	require.Empty(t, copied, "link stays hidden before access")
	require.Contains(t, m.Status(), "after access is granted")

	m = fill(t, m, "09164568890", "SDMKL56YUU")
	m, _ = send(t, m, keyType(tea.KeyEnter))

	m, cmd = send(t, m, keyType(tea.KeyCtrlY))
	m, _ = send(t, m, cmd())
	require.Equal(t, "https://t.me/payamsoty", copied)
	require.Equal(t, "Link copied to the clipboard.", m.Status())
}

func TestPanel_CopyLinkError(t *testing.T) {
	m := newModel(t, nil, WithClipboard(func(string) error { return errors.New("no clipboard") }))
	m = fill(t, m, "09164568890", "SDMKL56YUU")
	m, _ = send(t, m, keyType(tea.KeyEnter))

	m, cmd := send(t, m, keyType(tea.KeyCtrlY))
	m, _ = send(t, m, cmd())
	require.Contains(t, m.Status(), "no clipboard")
}

func TestPanel_Quit(t *testing.T) {
	m := newModel(t, nil)
	_, cmd := send(t, m, keyType(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestPanel_Resize(t *testing.T) {
	m := newModel(t, nil)
	for _, size := range [][2]int{{40, 12}, {80, 24}, {160, 50}} {
		m, _ = send(t, m, tea.WindowSizeMsg{Width: size[0], Height: size[1]})
		require.NotEmpty(t, m.View())
	}
}

func TestPanel_ResizeRewrapsBriefing(t *testing.T) {
	m := newModel(t, nil)
	brief := m.Session().Briefing()

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 70, Height: 30})
	require.Equal(t, m.theme.ContentWidth(), brief.Width())
	require.Empty(t, brief.Rendered(), "nothing is rendered before access")

	m = fill(t, m, "09164568890", "SDMKL56YUU")
	m, _ = send(t, m, keyType(tea.KeyEnter))
	require.NotEmpty(t, brief.Rendered())

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 50, Height: 30})
	require.Equal(t, m.theme.ContentWidth(), brief.Width())
	require.Less(t, brief.Width(), 50)
	require.Contains(t, brief.Rendered(), "payamsoty")
}

func TestPanel_BriefingEvent(t *testing.T) {
	m := newModel(t, nil)
	m, _ = send(t, m, SessionEventMsg{Event: session.EventBriefingReloaded})
	require.Equal(t, "Briefing updated.", m.Status())
}
