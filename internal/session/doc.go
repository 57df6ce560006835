// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties one case-file panel together.
//
// A Session owns the access gate, the audit log with its file and SQLite
// sinks, the music player, the briefing and the submit throttle. Frontends
// (the TUI and plain mode) talk only to a Session and learn about
// background changes through Event callbacks.
//
// # Key Types
//
//   - Session: the owner object, created with New and torn down with Close
//   - Event: lock tick, lock expiry, audio end, briefing reload
//   - Status: summary used by the header and plain mode
//
// # Usage
//
//	sess, err := session.New(cfg, session.WithNotify(func(e session.Event) {
//	    program.Send(panel.SessionEventMsg{Event: e})
//	}))
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	res, ok := sess.Submit(phone, code)
package session
