// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = 30 * time.Minute

// Job is a scheduled task.
type Job func(ctx context.Context) error

// JobInfo describes a registered job.
type JobInfo struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run"`
}

// Scheduler wraps a cron runner with named jobs and structured logging.
type Scheduler struct {
	cron       *cron.Cron
	logger     *slog.Logger
	jobTimeout time.Duration

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithJobTimeout bounds every job run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// New creates a scheduler evaluating schedules in loc (UTC when nil).
func New(loc *time.Location, logger *slog.Logger, opts ...Option) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		logger:     logger,
		jobTimeout: defaultJobTimeout,
		jobs:       make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers job under name with a standard five-field cron schedule.
// Registering a name twice replaces the earlier entry.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(context.Background(), name, job); err != nil {
			s.logger.Error("scheduled job failed", slog.String("job", name), slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()

	s.logger.Info("job scheduled", slog.String("job", name), slog.String("schedule", schedule))
	return nil
}

// RemoveJob unregisters name.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// RunNow executes job immediately under the job timeout.
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := time.Now()
	s.logger.InfoContext(ctx, "job started", slog.String("job", name))
	err := job(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	jobRuns.WithLabelValues(name, outcome).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.logger.InfoContext(ctx, "job completed", slog.String("job", name), slog.Duration("duration", time.Since(start)))
	return nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// Jobs lists the registered jobs.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, id := range s.jobs {
		e := s.cron.Entry(id)
		infos = append(infos, JobInfo{Name: name, NextRun: e.Next, LastRun: e.Prev})
	}
	return infos
}
