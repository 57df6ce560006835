// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package audit records access attempts made against the case-file gate.

The in-memory Log is the record the panel displays: append-only, newest entry
first, capped at a configured size (200 by default). Every appended entry is
also forwarded to the configured sinks:

  - FileSink writes one pipe-separated line per attempt to an audit log file.
  - Store archives attempts in a SQLite database (modernc.org/sqlite) so the
    "casefile audit" command can list and export them later.

Sinks only ever receive entries; nothing is read back into a running session.

# Usage

	log := audit.NewLog(audit.DefaultMaxEntries, audit.WithSessionID(id))
	defer log.Close()

	store, err := audit.OpenStore(path)
	if err != nil {
		return err
	}
	log.AddSink(store)

	log.Append(audit.Entry{Phone: phone, Code: code, Timestamp: time.Now()})
	latest, _ := log.Latest()
*/
package audit
