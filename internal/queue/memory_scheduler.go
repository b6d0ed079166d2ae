package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TaskFunc executes one job. A non-nil error marks the job failed; either
// way the job is terminal afterwards.
type TaskFunc func(ctx context.Context, job Job) error

// MemoryScheduler runs jobs on goroutines inside the current process. It
// backs tests and single-binary deployments; semantics (join barrier,
// permissive partial failure) match the Redis scheduler.
type MemoryScheduler struct {
	handler TaskFunc

	mu      sync.Mutex
	blocked map[string]*memJob // jobID -> waiting join job
	pending map[string]bool    // jobID -> not yet terminal
	wg      sync.WaitGroup
}

type memJob struct {
	job  Job
	deps map[string]bool // unreleased dependencies
}

func NewMemoryScheduler(handler TaskFunc) *MemoryScheduler {
	return &MemoryScheduler{
		handler: handler,
		blocked: make(map[string]*memJob),
		pending: make(map[string]bool),
	}
}

func (s *MemoryScheduler) Enqueue(ctx context.Context, task string, args map[string]string) (string, error) {
	job := Job{ID: uuid.NewString(), Task: task, Args: args}

	s.mu.Lock()
	s.pending[job.ID] = true
	s.mu.Unlock()

	s.dispatch(job)
	return job.ID, nil
}

func (s *MemoryScheduler) EnqueueAfterAll(ctx context.Context, deps []string, task string, args map[string]string) (string, error) {
	job := Job{ID: uuid.NewString(), Task: task, Args: args}

	s.mu.Lock()
	s.pending[job.ID] = true
	waiting := make(map[string]bool)
	for _, dep := range deps {
		if s.pending[dep] {
			waiting[dep] = true
		}
	}
	if len(waiting) > 0 {
		s.blocked[job.ID] = &memJob{job: job, deps: waiting}
		s.mu.Unlock()
		return job.ID, nil
	}
	s.mu.Unlock()

	s.dispatch(job)
	return job.ID, nil
}

func (s *MemoryScheduler) Complete(ctx context.Context, jobID string, jobErr error) error {
	var released []Job

	s.mu.Lock()
	delete(s.pending, jobID)
	for id, bj := range s.blocked {
		delete(bj.deps, jobID)
		if len(bj.deps) == 0 {
			released = append(released, bj.job)
			delete(s.blocked, id)
		}
	}
	s.mu.Unlock()

	for _, job := range released {
		s.dispatch(job)
	}
	return nil
}

func (s *MemoryScheduler) dispatch(job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.handler(context.Background(), job)
		_ = s.Complete(context.Background(), job.ID, err)
	}()
}

// Wait blocks until every dispatched job has finished. Blocked join jobs
// whose dependencies never complete are not waited on.
func (s *MemoryScheduler) Wait() {
	s.wg.Wait()
}
