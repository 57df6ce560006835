// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	closed  bool
}

func (s *recordingSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestLog_NewestFirst(t *testing.T) {
	l := NewLog(10)
	for i := 0; i < 3; i++ {
		l.Append(Entry{Phone: fmt.Sprintf("p%d", i)})
	}

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	for i, want := range []string{"p2", "p1", "p0"} {
		if entries[i].Phone != want {
			t.Errorf("entries[%d].Phone = %q, want %q", i, entries[i].Phone, want)
		}
	}

	latest, ok := l.Latest()
	if !ok || latest.Phone != "p2" {
		t.Errorf("Latest() = %+v, %v; want p2", latest, ok)
	}
}

func TestLog_NeverExceedsCap(t *testing.T) {
	l := NewLog(DefaultMaxEntries)
	for i := 0; i < 250; i++ {
		l.Append(Entry{Phone: fmt.Sprintf("p%d", i)})
		if l.Len() > DefaultMaxEntries {
			t.Fatalf("Len = %d after %d appends, exceeds cap", l.Len(), i+1)
		}
	}

	entries := l.Entries()
	if len(entries) != DefaultMaxEntries {
		t.Fatalf("Len = %d, want %d", len(entries), DefaultMaxEntries)
	}
	if entries[0].Phone != "p249" {
		t.Errorf("newest = %q, want p249", entries[0].Phone)
	}
	if entries[len(entries)-1].Phone != "p50" {
		t.Errorf("oldest = %q, want p50", entries[len(entries)-1].Phone)
	}
}

func TestLog_DefaultCap(t *testing.T) {
	if got := NewLog(0).Cap(); got != DefaultMaxEntries {
		t.Errorf("NewLog(0).Cap() = %d, want %d", got, DefaultMaxEntries)
	}
}

func TestLog_EntriesIsCopy(t *testing.T) {
	l := NewLog(5)
	l.Append(Entry{Phone: "a"})
	entries := l.Entries()
	entries[0].Phone = "mutated"

	if latest, _ := l.Latest(); latest.Phone != "a" {
		t.Errorf("log mutated through Entries(): %q", latest.Phone)
	}
}

func TestLog_StampsSessionAndFeedsSinks(t *testing.T) {
	sink := &recordingSink{}
	l := NewLog(5, WithSessionID("sess-1"), WithSink(sink))

	l.Append(Entry{Phone: "a"})
	l.Append(Entry{Phone: "b", SessionID: "explicit"})

	if len(sink.entries) != 2 {
		t.Fatalf("sink got %d entries, want 2", len(sink.entries))
	}
	if sink.entries[0].SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", sink.entries[0].SessionID)
	}
	if sink.entries[1].SessionID != "explicit" {
		t.Errorf("explicit SessionID overwritten: %q", sink.entries[1].SessionID)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !sink.closed {
		t.Error("sink not closed")
	}
}

func TestLog_SinkErrorDoesNotDropEntry(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	l := NewLog(5)
	l.AddSink(sink)

	l.Append(Entry{Phone: "a"})

	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := NewLog(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Append(Entry{Phone: fmt.Sprintf("%d-%d", n, j)})
				_ = l.Entries()
			}
		}(i)
	}
	wg.Wait()

	if l.Len() != 50 {
		t.Errorf("Len = %d, want 50", l.Len())
	}
}

func TestFileSink_WritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.log")
	sink, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink() error = %v", err)
	}

	ts := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	if err := sink.Write(Entry{SessionID: "s", Phone: "0916", Code: "ABC", Success: false, Outcome: "locked_out", Timestamp: ts}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sink.Write(Entry{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close error = %v, want ErrClosed", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	line := strings.TrimSpace(string(data))
	want := `2025-03-01 10:30:00 | ACCESS_ATTEMPT | s | "0916" | "ABC" | FAILURE: locked_out`
	if line != want {
		t.Errorf("line = %q, want %q", line, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("audit file permissions = %o, want owner-only", perm)
	}
}

func TestEntry_Status(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{Success: true}, "SUCCESS"},
		{Entry{}, "FAILURE"},
		{Entry{Outcome: "credential_mismatch"}, "FAILURE: credential_mismatch"},
	}
	for _, tc := range tests {
		if got := tc.entry.Status(); got != tc.want {
			t.Errorf("Status() = %q, want %q", got, tc.want)
		}
	}
}

func TestEntry_ToLogLineQuotesInput(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	e := Entry{
		SessionID: "s",
		Phone:     "0916\n2025-03-01 10:31:00 | ACCESS_ATTEMPT | s | x | y | SUCCESS",
		Code:      "ABC | SUCCESS",
		Outcome:   "credential_mismatch",
		Timestamp: ts,
	}
	line := e.ToLogLine()

	if strings.Contains(line, "\n") {
		t.Fatalf("line contains a raw newline: %q", line)
	}
	if !strings.HasSuffix(line, " | FAILURE: credential_mismatch") {
		t.Errorf("status field moved: %q", line)
	}
	if !strings.Contains(line, ` | "ABC | SUCCESS" | `) {
		t.Errorf("code not quoted: %q", line)
	}
	// Separators inside quoted fields do not count as field breaks.
	fields := strings.SplitN(line, ` | "`, 3)
	if len(fields) != 3 || fields[0] != "2025-03-01 10:30:00 | ACCESS_ATTEMPT | s" {
		t.Errorf("unexpected prefix in %q", line)
	}
}
