// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package briefing renders the case briefing revealed once access is
// granted: an optional markdown file plus the document list and the access
// link, rendered for the terminal with glamour.
package briefing

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the word-wrap width used when none is set.
const DefaultWidth = 80

// Options configures a Briefing.
type Options struct {
	// Path is an optional markdown file shown above the documents.
	Path      string
	Link      string
	Documents []string
	Width     int
	// Style is "dark", "light", "auto" or "notty".
	Style string
}

// Briefing holds the rendered case briefing.
type Briefing struct {
	mu       sync.RWMutex
	opts     Options
	rendered string

	watcher *watcher
}

// New creates a briefing. Nothing is read until Render is called.
func New(opts Options) *Briefing {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Style == "" {
		opts.Style = "notty"
	}
	return &Briefing{opts: opts}
}

// Link returns the access link.
func (b *Briefing) Link() string {
	return b.opts.Link
}

// Path returns the markdown file path, if any.
func (b *Briefing) Path() string {
	return b.opts.Path
}

// Width returns the wrap width.
func (b *Briefing) Width() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opts.Width
}

// SetWidth changes the wrap width for the next Render and reports whether
// it changed.
func (b *Briefing) SetWidth(width int) bool {
	if width <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opts.Width == width {
		return false
	}
	b.opts.Width = width
	return true
}

// Markdown assembles the briefing source.
func (b *Briefing) Markdown() (string, error) {
	b.mu.RLock()
	opts := b.opts
	b.mu.RUnlock()

	var sb strings.Builder
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read briefing: %w", err)
		}
		sb.Write(data)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("# Access granted\n\n")
		sb.WriteString("For more information and the case files, open the link below.\n\n")
	}

	if len(opts.Documents) > 0 {
		sb.WriteString("## Documents\n\n")
		for _, doc := range opts.Documents {
			fmt.Fprintf(&sb, "- `%s`\n", doc)
		}
		sb.WriteString("\n")
	}

	if opts.Link != "" {
		fmt.Fprintf(&sb, "**Link:** %s\n", opts.Link)
	}
	return sb.String(), nil
}

// Render renders the markdown with glamour and caches the result.
// When glamour fails the raw markdown is cached instead.
func (b *Briefing) Render() (string, error) {
	md, err := b.Markdown()
	if err != nil {
		return "", err
	}

	b.mu.RLock()
	width, style := b.opts.Width, b.opts.Style
	b.mu.RUnlock()

	out := md
	renderer, err := newRenderer(style, width)
	if err == nil {
		if rendered, rerr := renderer.Render(md); rerr == nil {
			out = rendered
		} else {
			err = rerr
		}
	}

	b.mu.Lock()
	b.rendered = out
	b.mu.Unlock()

	if err != nil {
		return out, fmt.Errorf("failed to render briefing: %w", err)
	}
	return out, nil
}

// Rendered returns the last rendered output.
func (b *Briefing) Rendered() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rendered
}

func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	if style == "auto" {
		return glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
	}
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
}
