package scheduler

import (
	"context"
	"log/slog"
	"time"

	"airsense/internal/domain"
)

// Job is one named sync run.
type Job struct {
	Name string
	Run  func(ctx context.Context) (*domain.SyncStats, error)
}

type Scheduler struct {
	jobs       []Job
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(jobs []Job, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		jobs:       jobs,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start runs every job once immediately and then on each tick until ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "jobs", len(s.jobs))

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs the jobs in order. A failing job is logged and the next one
// still runs. It returns the number of jobs that failed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	failed := 0
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		if !s.run(ctx, job) {
			failed++
		}
	}
	return failed
}

func (s *Scheduler) run(ctx context.Context, job Job) bool {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := job.Run(runCtx); err != nil {
		s.logger.Error("sync failed", "job", job.Name, "error", err)
		return false
	}
	return true
}
