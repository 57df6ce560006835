// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends one ToLogLine per entry to a file.
type FileSink struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenFileSink opens (or creates) the audit file at path.
// SECURITY: the file holds entered codes, so it is created owner-only.
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileSink{path: path, file: f}, nil
}

// Path returns the file path.
func (s *FileSink) Path() string {
	return s.path
}

// Write appends e to the file.
func (s *FileSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ErrClosed
	}
	if _, err := fmt.Fprintln(s.file, e.ToLogLine()); err != nil {
		return fmt.Errorf("failed to write audit line: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Sync()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	return err
}
