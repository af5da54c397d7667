// Package scheduler runs pipeline jobs on cron schedules. A job whose
// previous run is still in progress is skipped rather than queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrStopped is returned by RunNow once Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

type entry struct {
	job     Job
	running atomic.Bool
	history JobHistory
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	jobs    map[string]*entry
	stopped bool
}

// New creates a scheduler. Schedules use a leading seconds field.
func New(logger *zap.SugaredLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
	}
}

// AddJob registers a job on its schedule.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	e := &entry{job: job}
	if _, err := s.cron.AddFunc(job.Schedule(), func() { _, _ = s.run(e) }); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.jobs[name] = e

	s.logger.Infow("job added to scheduler", "job", name, "schedule", job.Schedule())
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunNow runs a job immediately and waits for it. It returns false when the
// job was skipped because a previous run is still in progress, and
// ErrStopped after Stop.
func (s *Scheduler) RunNow(name string) (bool, error) {
	s.mu.RLock()
	e, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return false, fmt.Errorf("job %s not found", name)
	}
	return s.run(e)
}

// History returns a copy of the recorded results of a job.
func (s *Scheduler) History(name string) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return append([]JobResult(nil), e.history.Results...), nil
}

func (s *Scheduler) record(e *entry, r JobResult) {
	s.mu.Lock()
	e.history.AddResult(r)
	s.mu.Unlock()
}

// track registers a run with the wait group unless the scheduler is stopping.
// Add happens under the same lock Stop takes, so Stop's Wait never races it.
func (s *Scheduler) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Scheduler) run(e *entry) (bool, error) {
	name := e.job.Name()
	start := time.Now()

	if !s.track() {
		return false, ErrStopped
	}
	defer s.wg.Done()

	if !e.running.CompareAndSwap(false, true) {
		s.logger.Warnw("job still running, skipping", "job", name)
		s.record(e, JobResult{JobName: name, StartTime: start, Skipped: true})
		return false, nil
	}
	defer e.running.Store(false)

	s.logger.Infow("job started", "job", name)
	err := e.job.Run(s.ctx)
	result := JobResult{
		JobName:   name,
		StartTime: start,
		Duration:  time.Since(start),
		Success:   err == nil,
	}
	if err != nil {
		result.Error = err.Error()
		s.logger.Errorw("job failed", "job", name, "duration", result.Duration, "error", err)
	} else {
		s.logger.Infow("job completed", "job", name, "duration", result.Duration)
	}
	s.record(e, result)
	return true, nil
}
