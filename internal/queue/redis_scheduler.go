package queue

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meetscribe/meetscribe/internal/models"
	mongorepo "github.com/meetscribe/meetscribe/internal/repositories/mongo"
)

const DefaultStream = "pipeline:jobs"

// RedisScheduler delivers jobs over a Redis stream and keeps terminal-state
// bookkeeping in the Mongo job ledger. Blocked join jobs live only in the
// ledger until their last dependency completes.
type RedisScheduler struct {
	rdb    *redis.Client
	jobs   mongorepo.JobRepository
	stream string
}

func NewRedisScheduler(rdb *redis.Client, jobs mongorepo.JobRepository, stream string) *RedisScheduler {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisScheduler{rdb: rdb, jobs: jobs, stream: stream}
}

func (s *RedisScheduler) Stream() string { return s.stream }

func (s *RedisScheduler) Enqueue(ctx context.Context, task string, args map[string]string) (string, error) {
	jobID := uuid.NewString()
	rec := &models.JobRecord{
		JobID:  jobID,
		Task:   task,
		Args:   args,
		Status: models.JobQueued,
	}
	if err := s.jobs.Insert(ctx, rec); err != nil {
		return "", err
	}
	if err := s.deliver(ctx, rec); err != nil {
		return "", err
	}
	return jobID, nil
}

func (s *RedisScheduler) EnqueueAfterAll(ctx context.Context, deps []string, task string, args map[string]string) (string, error) {
	if len(deps) == 0 {
		return s.Enqueue(ctx, task, args)
	}

	jobID := uuid.NewString()
	rec := &models.JobRecord{
		JobID:     jobID,
		Task:      task,
		Args:      args,
		Status:    models.JobBlocked,
		DependsOn: deps,
	}
	if err := s.jobs.Insert(ctx, rec); err != nil {
		return "", err
	}

	// Dependencies may all have completed before this record landed.
	if err := s.maybeRelease(ctx, rec); err != nil {
		return "", err
	}
	return jobID, nil
}

func (s *RedisScheduler) Complete(ctx context.Context, jobID string, jobErr error) error {
	status := models.JobSucceeded
	msg := ""
	if jobErr != nil {
		status = models.JobFailed
		msg = jobErr.Error()
	}
	if err := s.jobs.MarkFinished(ctx, jobID, status, msg); err != nil {
		return err
	}

	dependents, err := s.jobs.ListBlockedDependents(ctx, jobID)
	if err != nil {
		return err
	}
	for i := range dependents {
		if err := s.maybeRelease(ctx, &dependents[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisScheduler) maybeRelease(ctx context.Context, rec *models.JobRecord) error {
	remaining, err := s.jobs.CountNonTerminal(ctx, rec.DependsOn)
	if err != nil || remaining > 0 {
		return err
	}

	won, err := s.jobs.MarkQueuedIfBlocked(ctx, rec.JobID)
	if err != nil || !won {
		return err
	}
	return s.deliver(ctx, rec)
}

func (s *RedisScheduler) deliver(ctx context.Context, rec *models.JobRecord) error {
	argsJSON, err := json.Marshal(rec.Args)
	if err != nil {
		return err
	}
	return s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"job_id": rec.JobID,
			"task":   rec.Task,
			"args":   string(argsJSON),
		},
	}).Err()
}
