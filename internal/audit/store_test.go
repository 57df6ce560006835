// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_InsertAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, Entry{SessionID: "a", Phone: "1", Code: "X", Outcome: "credential_mismatch", Timestamp: base}))
	require.NoError(t, store.Insert(ctx, Entry{SessionID: "a", Phone: "2", Code: "Y", Success: true, Outcome: "success", Timestamp: base.Add(time.Second)}))
	require.NoError(t, store.Write(Entry{SessionID: "b", Phone: "3", Code: "Z", Outcome: "locked_out", Timestamp: base.Add(2 * time.Second)}))

	all, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "3", all[0].Phone, "newest first")
	require.Equal(t, "1", all[2].Phone)
	require.True(t, all[1].Success)
	require.True(t, all[2].Timestamp.Equal(base))

	sessionA, err := store.List(ctx, ListOptions{SessionID: "a"})
	require.NoError(t, err)
	require.Len(t, sessionA, 2)

	failed, err := store.List(ctx, ListOptions{FailedOnly: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "3", failed[0].Phone)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestStore_AsLogSink(t *testing.T) {
	store := openTestStore(t)
	l := NewLog(2, WithSessionID("sess"), WithSink(store))

	for i := 0; i < 5; i++ {
		l.Append(Entry{Phone: "p", Timestamp: time.Now()})
	}

	// The in-memory log is capped; the archive keeps everything.
	require.Equal(t, 2, l.Len())
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, n)

	rows, err := store.List(context.Background(), ListOptions{SessionID: "sess"})
	require.NoError(t, err)
	require.Len(t, rows, 5)
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Write(Entry{Phone: "p", Timestamp: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStore_Closed(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "double close is a no-op")

	err := store.Write(Entry{Phone: "p"})
	require.True(t, errors.Is(err, ErrClosed))
	_, err = store.List(context.Background(), ListOptions{})
	require.True(t, errors.Is(err, ErrClosed))
}

func TestExport_Formats(t *testing.T) {
	ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	entries := []Entry{
		{SessionID: "s", Phone: "0916", Code: "SDMKL56YUU", Success: true, Outcome: "success", Timestamp: ts},
		{SessionID: "s", Phone: "0916", Code: "bad,code", Outcome: "credential_mismatch", Timestamp: ts},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, entries, FormatJSON))
		var decoded []Entry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		require.Equal(t, "bad,code", decoded[1].Code)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, entries, FormatYAML))
		out := buf.String()
		require.Contains(t, out, "code: SDMKL56YUU")
		require.Contains(t, out, "outcome: credential_mismatch")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, entries, FormatCSV))
		records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, csvHeader, records[0])
		require.Equal(t, "2025-02-03T04:05:06Z", records[1][0])
		require.Equal(t, "bad,code", records[2][3])
		require.Equal(t, "false", records[2][4])
	})

	t.Run("empty json is an array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, nil, FormatJSON))
		require.Equal(t, "[]", strings.TrimSpace(buf.String()))
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"YML", FormatYAML, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
