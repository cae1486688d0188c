// Package audit records what was done to notes and evaluations, and from
// where, in the SQLite activity table.
package audit

import "time"

// Source identifies the surface an action came through.
type Source string

const (
	SourceCLI       Source = "cli"
	SourceDashboard Source = "dashboard"
	SourceMCP       Source = "mcp"
)

// Action describes what was done.
type Action string

const (
	ActionNoteCreated        Action = "note_created"
	ActionNoteUpdated        Action = "note_updated"
	ActionNoteDeleted        Action = "note_deleted"
	ActionEvaluationRecorded Action = "evaluation_recorded"
	ActionEvaluationFailed   Action = "evaluation_failed"
)

// Entry is a single activity record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	SessionID string    `json:"session_id,omitempty"`
	Action    Action    `json:"action"`
	File      string    `json:"file,omitempty"`
	Model     string    `json:"model,omitempty"`
	Focus     string    `json:"focus,omitempty"`
	// Record is the archived evaluation file name, set for evaluation_recorded.
	Record  string `json:"record,omitempty"`
	Summary string `json:"summary,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
