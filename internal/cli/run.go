// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/casefile-tui/internal/config"
	"github.com/jeranaias/casefile-tui/internal/session"
	"github.com/jeranaias/casefile-tui/internal/ui/panel"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
)

// programRef is the running panel program. Session callbacks fire on
// background goroutines and forward events through it.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// runPanel opens a session and runs the panel or the plain shell.
func runPanel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if plainMode || !CanRunPanel() {
		sess, err := session.New(cfg, session.WithAudioOutput(cmd.OutOrStdout()))
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		defer sess.Close()
		return runPlainShell(sess, cmd.OutOrStdout())
	}

	// The panel owns the screen, so library logging goes to a file.
	if err := config.EnsureConfigDir(); err == nil {
		if dir, derr := config.ConfigDir(); derr == nil {
			if f, lerr := tea.LogToFile(filepath.Join(dir, "casefile.log"), "casefile"); lerr == nil {
				defer f.Close()
			}
		}
	}

	sess, err := session.New(cfg, session.WithAudioOutput(os.Stdout))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Close()

	m := panel.New(sess, styles.NewTheme(cfg.UI.Theme))
	p := tea.NewProgram(m, tea.WithAltScreen())

	programMu.Lock()
	programRef = p
	programMu.Unlock()
	defer func() {
		programMu.Lock()
		programRef = nil
		programMu.Unlock()
	}()

	sess.SetNotify(func(e session.Event) {
		sendToProgram(panel.SessionEventMsg{Event: e})
	})
	defer sess.SetNotify(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("panel error: %w", err)
	}
	return nil
}
