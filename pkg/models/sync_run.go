package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// SyncRun tracks one synchronization pass. POST /api/v1/sync returns the run id;
// the client polls GET /api/v1/sync/runs/{run_id} until status is completed or failed.
type SyncRun struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	Trigger      string     `db:"trigger"       json:"trigger"`
	Status       string     `db:"status"        json:"status"`
	Total        int        `db:"total"         json:"total"`
	Created      int        `db:"created"       json:"created"`
	Updated      int        `db:"updated"       json:"updated"`
	Skipped      int        `db:"skipped"       json:"skipped"`
	Failed       int        `db:"failed"        json:"failed"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt    *time.Time `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// Outcomes of a single report within a run.
const (
	OutcomeCreated       = "created"
	OutcomeUpdated       = "updated"
	OutcomeAlreadySynced = "already_synced"
	OutcomeFailed        = "failed"
)

// ReportResult is the outcome of one report within a SyncRun.
type ReportResult struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	RunID        uuid.UUID `db:"run_id"        json:"run_id"`
	ReportID     string    `db:"report_id"     json:"report_id"`
	Fingerprint  string    `db:"fingerprint"   json:"fingerprint"`
	IssueID      *int      `db:"issue_id"      json:"issue_id,omitempty"`
	Outcome      string    `db:"outcome"       json:"outcome"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}
