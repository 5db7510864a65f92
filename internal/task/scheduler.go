package task

import (
	"context"
	"sync"
	"time"
)

// ExecFn executes a single job and returns its result.
type ExecFn func(ctx context.Context, j Job) *Result

// SchedulerConfig holds scheduler parameters.
type SchedulerConfig struct {
	Workers  int
	ExecFn   ExecFn
	OnUpdate func(idx int, result *Result) // called on state changes
}

// Scheduler runs jobs on a fixed pool of workers, in list order.
type Scheduler struct {
	cfg     SchedulerConfig
	jobs    []Job
	results []*Result
	mu      sync.Mutex
}

// NewScheduler creates a scheduler for jobs. Workers below 1 means 1.
func NewScheduler(jobs []Job, cfg SchedulerConfig) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	results := make([]*Result, len(jobs))
	for i, j := range jobs {
		results[i] = &Result{Job: j, State: StatePending}
	}
	return &Scheduler{cfg: cfg, jobs: jobs, results: results}
}

// Run executes all jobs and returns their results in job order. Jobs still
// queued when ctx is cancelled are marked skipped.
func (s *Scheduler) Run(ctx context.Context) []*Result {
	var wg sync.WaitGroup
	work := make(chan int)

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				s.execute(ctx, idx)
			}
		}()
	}

enqueue:
	for idx := range s.jobs {
		select {
		case work <- idx:
		case <-ctx.Done():
			for rest := idx; rest < len(s.jobs); rest++ {
				s.skip(rest, ctx.Err())
			}
			break enqueue
		}
	}
	close(work)
	wg.Wait()

	return s.Results()
}

// Results returns a copy of the current results.
func (s *Scheduler) Results() []*Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*Result, len(s.results))
	for i, r := range s.results {
		cpy := *r
		cp[i] = &cpy
	}
	return cp
}

func (s *Scheduler) execute(ctx context.Context, idx int) {
	if err := ctx.Err(); err != nil {
		s.skip(idx, err)
		return
	}

	s.mu.Lock()
	s.results[idx].State = StateRunning
	s.results[idx].StartedAt = time.Now()
	s.mu.Unlock()
	s.notify(idx)

	result := s.cfg.ExecFn(ctx, s.jobs[idx])
	if result == nil {
		result = &Result{State: StateFailed, Error: "no result"}
	}

	s.mu.Lock()
	result.Job = s.jobs[idx]
	if result.StartedAt.IsZero() {
		result.StartedAt = s.results[idx].StartedAt
	}
	if result.EndedAt.IsZero() {
		result.EndedAt = time.Now()
	}
	if result.Duration == 0 {
		result.Duration = result.EndedAt.Sub(result.StartedAt)
	}
	s.results[idx] = result
	s.mu.Unlock()
	s.notify(idx)
}

func (s *Scheduler) skip(idx int, err error) {
	s.mu.Lock()
	r := s.results[idx]
	if r.State != StatePending {
		s.mu.Unlock()
		return
	}
	r.State = StateSkipped
	r.Error = err.Error()
	s.mu.Unlock()
	s.notify(idx)
}

func (s *Scheduler) notify(idx int) {
	if s.cfg.OnUpdate != nil {
		s.mu.Lock()
		cpy := *s.results[idx]
		s.mu.Unlock()
		s.cfg.OnUpdate(idx, &cpy)
	}
}
