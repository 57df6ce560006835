// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is a single recorded submission attempt.
type Entry struct {
	SessionID string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Phone     string    `json:"phone" yaml:"phone"`
	Code      string    `json:"code" yaml:"code"`
	Success   bool      `json:"success" yaml:"success"`
	Outcome   string    `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Status returns SUCCESS or FAILURE, with the outcome appended for failures.
func (e Entry) Status() string {
	if e.Success {
		return "SUCCESS"
	}
	if e.Outcome != "" {
		return fmt.Sprintf("FAILURE: %s", e.Outcome)
	}
	return "FAILURE"
}

// ToLogLine formats the entry as a single audit file line. Phone and code
// are user input and are quoted so separators or line breaks inside them
// cannot forge extra fields or lines.
func (e Entry) ToLogLine() string {
	return fmt.Sprintf("%s | ACCESS_ATTEMPT | %s | %q | %q | %s",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		e.SessionID,
		e.Phone,
		e.Code,
		e.Status(),
	)
}

// ToJSON formats the entry as JSON.
func (e Entry) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
