package models

import "time"

// Job runtime statuses as tracked in the scheduler's ledger. Succeeded and
// failed are both terminal; the join barrier releases on either.
const (
	JobQueued    = "queued"
	JobBlocked   = "blocked"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// JobRecord is the scheduler's bookkeeping document (Mongo). It is the
// source of truth for whether a fan-out job has reached a terminal state.
type JobRecord struct {
	JobID string            `bson:"job_id" json:"job_id"`
	Task  string            `bson:"task" json:"task"`
	Args  map[string]string `bson:"args" json:"args"`

	Status    string   `bson:"status" json:"status"`
	DependsOn []string `bson:"depends_on,omitempty" json:"depends_on,omitempty"`
	LastError string   `bson:"last_error,omitempty" json:"last_error,omitempty"`

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	StartedAt  *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt *time.Time `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}
