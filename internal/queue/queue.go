// Package queue abstracts the fan-out/join job runtime behind a small
// scheduler interface so orchestration logic stays testable without a real
// broker.
package queue

import "context"

// Task names dispatched through the pipeline stream.
const (
	TaskIngest      = "ingest"
	TaskVad         = "vad"
	TaskTranscribe  = "transcribe"
	TaskConsolidate = "consolidate"
	TaskSummarize   = "summarize"
)

type Job struct {
	ID   string
	Task string
	Args map[string]string
}

type Scheduler interface {
	// Enqueue schedules a job for immediate delivery and returns its id.
	Enqueue(ctx context.Context, task string, args map[string]string) (string, error)
	// EnqueueAfterAll schedules a join job that is delivered only once every
	// dependency has reached a terminal state, success or failure.
	EnqueueAfterAll(ctx context.Context, deps []string, task string, args map[string]string) (string, error)
	// Complete records a job's terminal state and releases any join jobs
	// whose dependencies are now all terminal.
	Complete(ctx context.Context, jobID string, jobErr error) error
}
