package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	mongorepo "github.com/meetscribe/meetscribe/internal/repositories/mongo"
	"github.com/meetscribe/meetscribe/internal/queue"
)

// PipelineWorkerPool consumes pipeline jobs from the Redis stream. Each
// consumer reads with a group so a job is delivered to exactly one worker;
// completion is always reported to the scheduler so join jobs release even
// when a handler fails or panics.
type PipelineWorkerPool struct {
	Redis      *redis.Client
	Jobs       mongorepo.JobRepository
	Tasks      *Tasks
	Scheduler  queue.Scheduler
	NumWorkers int

	TaskTimeout time.Duration

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *PipelineWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Jobs == nil || p.Tasks == nil || p.Scheduler == nil {
		return errors.New("PipelineWorkerPool missing dependency: Redis/Jobs/Tasks/Scheduler must be set")
	}
	if p.Stream == "" {
		p.Stream = queue.DefaultStream
	}
	if p.Group == "" {
		p.Group = "pipeline-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.TaskTimeout <= 0 {
		p.TaskTimeout = 15 * time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *PipelineWorkerPool) runConsumer(ctx context.Context, consumer string) {
	wait := backoff.NewExponentialBackOff()
	wait.MaxElapsedTime = 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				wait.Reset()
				continue
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(wait.NextBackOff())
			continue
		}
		wait.Reset()

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *PipelineWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	jobID := getStr("job_id")
	task := getStr("task")
	if jobID == "" || task == "" {
		return
	}

	args := map[string]string{}
	if raw := getStr("args"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &args)
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"job_id":   jobID,
		"task":     task,
	})

	if err := p.Jobs.MarkRunning(ctx, jobID); err != nil {
		log.WithError(err).Warn("failed to mark job running")
	}

	jobErr := p.runJob(ctx, queue.Job{ID: jobID, Task: task, Args: args})
	if jobErr != nil {
		log.WithError(jobErr).Error("job failed")
	} else {
		log.Info("job done")
	}

	if err := p.Scheduler.Complete(ctx, jobID, jobErr); err != nil {
		log.WithError(err).Error("failed to complete job")
	}
}

// runJob applies the per-task deadline and converts a handler panic into a
// job failure so the join accounting never loses a dependency.
func (p *PipelineWorkerPool) runJob(ctx context.Context, job queue.Job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", job.Task, r)
		}
	}()
	return p.Tasks.Dispatch(ctx, job)
}
