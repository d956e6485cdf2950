package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler runs ranking jobs on cron schedules
type Scheduler struct {
	ctx        context.Context // parent of every scheduled run
	cron       *cron.Cron
	jobs       map[string]cron.EntryID
	jobTimeout time.Duration
	log        *slog.Logger
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}

// New creates a new scheduler with the given timezone. Scheduled runs
// derive their context from ctx and are bounded by jobTimeout.
func New(ctx context.Context, timezone string, jobTimeout time.Duration, log *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	return &Scheduler{
		ctx:        ctx,
		cron:       cron.New(cron.WithLocation(loc)),
		jobs:       make(map[string]cron.EntryID),
		jobTimeout: jobTimeout,
		log:        log.With("component", "scheduler"),
	}, nil
}

// AddJob adds a job with a cron schedule
// schedule format: "0 9 * * *" (at 9:00 daily)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(s.ctx, name, job); err != nil {
			s.log.Error("Job failed", "job", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.Info("Added job", "job", name, "schedule", schedule)

	return nil
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a job with the scheduler's timeout
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	s.log.Info("Starting job", "job", name)
	start := time.Now()

	if err := job(ctx); err != nil {
		return err
	}

	s.log.Info("Job completed", "job", name, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}
