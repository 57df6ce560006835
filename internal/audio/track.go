// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio plays the case-file music: a fixed track list, play/pause,
// and a playback rate between 0.5x and 2.0x. Sound is produced by a Backend
// (an external player process, the terminal bell, or nothing).
package audio

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	MinRate     = 0.5
	MaxRate     = 2.0
	DefaultRate = 1.0
	RateStep    = 0.1
)

var (
	ErrUnknownTrack = errors.New("unknown track")
	ErrNoTracks     = errors.New("no tracks configured")
	ErrClosed       = errors.New("player closed")
	ErrNoPlayer     = errors.New("no audio player found")
)

// DefaultTracks are the case-file tracks shipped with the panel.
var DefaultTracks = []string{"music11.mp3", "music12.mp3", "music13.mp3"}

// =============================================================================
// TRACKS
// =============================================================================

// Track is one selectable piece of music. ID is the file name.
type Track struct {
	ID     string
	Title  string
	Source string
}

// TracksFromFiles builds tracks for the given file names. Relative names are
// resolved against dir when dir is non-empty.
func TracksFromFiles(dir string, files []string) []Track {
	tracks := make([]Track, 0, len(files))
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		src := f
		if dir != "" && !filepath.IsAbs(f) {
			src = filepath.Join(dir, f)
		}
		id := filepath.Base(f)
		tracks = append(tracks, Track{
			ID:     id,
			Title:  strings.TrimSuffix(id, filepath.Ext(id)),
			Source: src,
		})
	}
	return tracks
}

// ClampRate limits r to [MinRate, MaxRate] and rounds it to one decimal.
func ClampRate(r float64) float64 {
	if math.IsNaN(r) {
		return DefaultRate
	}
	r = math.Max(MinRate, math.Min(MaxRate, r))
	return math.Round(r*10) / 10
}
