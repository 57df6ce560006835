// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/casefile-tui/internal/audio"
	"github.com/jeranaias/casefile-tui/internal/gate"
	"github.com/jeranaias/casefile-tui/internal/session"
	"github.com/jeranaias/casefile-tui/internal/ui/styles"
	"github.com/jeranaias/casefile-tui/internal/util"
)

// =============================================================================
// PLAIN SHELL
// =============================================================================

// promptFunc reads one line after showing prompt.
type promptFunc func(prompt string) (string, error)

// plainShell is the line-mode frontend. It drives the same session as the
// panel and writes everything to out.
type plainShell struct {
	sess *session.Session

	mu  sync.Mutex
	out io.Writer
}

func newPlainShell(sess *session.Session, out io.Writer) *plainShell {
	return &plainShell{sess: sess, out: out}
}

func (s *plainShell) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *plainShell) println(line string) {
	s.printf("%s\n", line)
}

// onEvent reports background session events between prompts.
func (s *plainShell) onEvent(e session.Event) {
	switch e {
	case session.EventLockExpired:
		s.println(SuccessStyle.Render("The panel is unlocked. Press Enter to continue."))
	case session.EventAudioEnded:
		s.println(DimStyle.Render("Track finished."))
	case session.EventBriefingReloaded:
		s.println(DimStyle.Render("Briefing updated."))
	}
}

// greet prints the banner shown once at startup.
func (s *plainShell) greet() {
	cfg := s.sess.Config()
	s.println(TitleStyle.Render("[" + cfg.UI.Badge + "] " + cfg.UI.Title))
	s.println(RenderSeparator(60))
	s.println(DimStyle.Render(styles.StatusIndicators.Locked + " The link and attempt log appear after a correct entry."))
	s.println(DimStyle.Render("Type quit at any prompt to leave."))
}

// run loops until the user quits or input ends.
func (s *plainShell) run(prompt promptFunc) error {
	s.greet()
	gcfg := s.sess.Gate().Config()

	for {
		st := s.sess.State()
		switch {
		case st.Denied:
			s.println(DimStyle.Render("Type reset to start over or quit to leave."))
			line, err := prompt("(denied) ")
			if err != nil {
				return endOfInput(err)
			}
			if isQuit(line) {
				return nil
			}
			if strings.EqualFold(strings.TrimSpace(line), "reset") {
				s.sess.Reset()
				s.println(SuccessStyle.Render("Panel reset."))
			}

		case st.Granted:
			line, err := prompt("casefile> ")
			if err != nil {
				return endOfInput(err)
			}
			if s.exec(line) {
				return nil
			}

		case st.Locked():
			s.println(WarningStyle.Render(fmt.Sprintf("Too many attempts. Try again in %s.",
				gate.FormatCountdown(st.LockRemaining))))
			line, err := prompt("(locked) ")
			if err != nil {
				return endOfInput(err)
			}
			if isQuit(line) {
				return nil
			}

		default:
			s.println(DimStyle.Render(fmt.Sprintf("Attempts %d / %d", st.Attempts, gcfg.MaxAttempts)))
			phone, err := prompt("Phone number: ")
			if err != nil {
				return endOfInput(err)
			}
			if isQuit(phone) {
				return nil
			}
			code, err := prompt("Access code: ")
			if err != nil {
				return endOfInput(err)
			}
			if isQuit(code) {
				return nil
			}
			s.submit(phone, code)
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
		return nil
	}
	return err
}

func isQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// submit sends one credential pair and prints the outcome.
func (s *plainShell) submit(phone, code string) {
	res, ok := s.sess.Submit(phone, code)
	if !ok {
		s.println(WarningStyle.Render("Too fast. Wait a moment before trying again."))
		return
	}
	if res.Alert != nil {
		if res.Alert.Kind == gate.AlertSuccess {
			s.println(SuccessStyle.Render(styles.StatusIndicators.Success + " " + res.Alert.Text))
		} else {
			s.println(ErrorStyle.Render(styles.StatusIndicators.Error + " " + res.Alert.Text))
		}
	}
	if res.Kind == gate.KindSuccess {
		s.reveal()
	}
}

// reveal prints the post-grant section.
func (s *plainShell) reveal() {
	s.println("")
	s.println(SuccessStyle.Render("Access activated"))
	s.println(RenderSeparator(60))

	b := s.sess.Briefing()
	if md, err := b.Markdown(); err == nil {
		s.println(strings.TrimRight(md, "\n"))
	} else {
		s.println(ErrorStyle.Render("Could not load the briefing: " + err.Error()))
	}
	s.println("")
	s.printLog()
	s.println(DimStyle.Render("Commands: play, stop, next, track <id>, speed <rate|+|->, logs, link, status, help, quit"))
}

// printLog prints the attempt log, newest first.
func (s *plainShell) printLog() {
	entries := s.sess.Log().Entries()
	s.println(TitleStyle.Render("Attempt log"))
	if len(entries) == 0 {
		s.println(DimStyle.Render("No attempts recorded."))
		return
	}
	for _, e := range entries {
		s.printf("%s %s  %s  %s\n",
			RenderStatus(e.Success),
			util.PadWidth(e.Phone, 16),
			util.PadWidth(e.Code, 14),
			DimStyle.Render(e.Timestamp.Format("2006-01-02 15:04:05")))
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// exec runs one post-grant command and reports whether the shell should exit.
func (s *plainShell) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.println("play            start the current track")
		s.println("stop            pause playback")
		s.println("next            switch to the next track")
		s.println("track <id|n>    select a track by file name or number")
		s.println("speed <r|+|->   set the playback speed (0.5 to 2.0)")
		s.println("logs            show the attempt log")
		s.println("link            show the access link")
		s.println("status          show session status")
		s.println("quit            leave")
	case "logs", "log":
		s.printLog()
	case "link":
		s.println(s.sess.Briefing().Link())
	case "status":
		s.printStatus()
	case "play", "stop", "pause", "next", "track", "speed":
		if err := s.audioCommand(cmd, args); err != nil {
			s.println(ErrorStyle.Render(err.Error()))
		}
	default:
		s.println(ErrorStyle.Render(fmt.Sprintf("Unknown command %q. Type help for a list.", fields[0])))
	}
	return false
}

var errAudioDisabled = errors.New("audio is disabled")

func (s *plainShell) audioCommand(cmd string, args []string) error {
	p := s.sess.Player()
	if p == nil {
		return errAudioDisabled
	}

	switch cmd {
	case "play":
		if !p.Playing() {
			if _, err := p.Toggle(); err != nil {
				return fmt.Errorf("failed to start playback: %w", err)
			}
		}
		s.printf("Playing %s at %s\n", p.Current().ID, util.FormatRate(p.Rate()))

	case "stop", "pause":
		if p.Playing() {
			if _, err := p.Toggle(); err != nil {
				return fmt.Errorf("failed to stop playback: %w", err)
			}
		}
		s.println("Stopped.")

	case "next":
		if err := p.Next(); err != nil {
			return fmt.Errorf("failed to switch track: %w", err)
		}
		s.printf("Track %s\n", p.Current().ID)

	case "track":
		if len(args) != 1 {
			return errors.New("usage: track <id|n>")
		}
		id, err := resolveTrack(p.Tracks(), args[0])
		if err != nil {
			return err
		}
		if err := p.Select(id); err != nil {
			return fmt.Errorf("failed to switch track: %w", err)
		}
		s.printf("Track %s\n", p.Current().ID)

	case "speed":
		if len(args) != 1 {
			return errors.New("usage: speed <rate|+|->")
		}
		var (
			r   float64
			err error
		)
		switch args[0] {
		case "+":
			r, err = p.Faster()
		case "-":
			r, err = p.Slower()
		default:
			v, perr := strconv.ParseFloat(strings.TrimSuffix(args[0], "x"), 64)
			if perr != nil {
				return fmt.Errorf("invalid speed %q", args[0])
			}
			r, err = p.SetRate(v)
		}
		if err != nil {
			return fmt.Errorf("failed to change speed: %w", err)
		}
		s.printf("Speed %s\n", util.FormatRate(r))
	}
	return nil
}

// resolveTrack accepts a track ID, an ID without extension or a 1-based
// position.
func resolveTrack(tracks []audio.Track, arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(tracks) {
			return "", fmt.Errorf("%w: %s", audio.ErrUnknownTrack, arg)
		}
		return tracks[n-1].ID, nil
	}
	for _, t := range tracks {
		if strings.EqualFold(t.ID, arg) || strings.EqualFold(strings.TrimSuffix(t.ID, ".mp3"), arg) {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", audio.ErrUnknownTrack, arg)
}

func (s *plainShell) printStatus() {
	st := s.sess.GetStatus()
	s.println(RenderLabel("Session") + st.SessionID)
	s.println(RenderLabel("Uptime") + session.FormatDuration(st.Duration))
	s.println(RenderLabel("Attempts logged") + strconv.Itoa(st.LogEntries))
	if s.sess.Player() != nil {
		state := "stopped"
		if st.Playing {
			state = "playing"
		}
		s.println(RenderLabel("Music") + st.Track + " (" + state + ", " + util.FormatRate(st.Rate) + ")")
	}
}

// =============================================================================
// LINER
// =============================================================================

// runPlainShell runs the shell on the controlling terminal with line editing
// and history.
func runPlainShell(sess *session.Session, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	sh := newPlainShell(sess, out)
	sess.SetNotify(sh.onEvent)
	defer sess.SetNotify(nil)

	return sh.run(func(prompt string) (string, error) {
		input, err := line.Prompt(prompt)
		if err != nil {
			return "", err
		}
		// Credentials stay out of the history.
		if prompt == "casefile> " && strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		return input, nil
	})
}
