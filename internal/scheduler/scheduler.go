// Package scheduler runs pipeline jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 30 * time.Minute

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks
type Scheduler struct {
	cron       *cron.Cron
	timezone   *time.Location
	jobTimeout time.Duration

	mu   sync.Mutex
	jobs map[string]cron.EntryID
	base context.Context
}

// New creates a new scheduler with the given timezone
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:       c,
		timezone:   loc,
		jobTimeout: DefaultJobTimeout,
		jobs:       make(map[string]cron.EntryID),
		base:       context.Background(),
	}, nil
}

// AddJob adds a job with a cron schedule, replacing any job with the same name
// schedule format: "0 7 * * *" (at 7:00 AM daily)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.mu.Lock()
		base := s.base
		s.mu.Unlock()
		if err := s.run(base, name, job); err != nil {
			slog.Error("Scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()
	slog.Info("Added scheduled job", "job", name, "schedule", schedule, "timezone", s.timezone)

	return nil
}

// AddPipelineJob schedules the collect and analyze run
func (s *Scheduler) AddPipelineJob(schedule string, job Job) error {
	return s.AddJob("pipeline", schedule, job)
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	slog.Info("Starting scheduler")
	s.cron.Start()

	<-ctx.Done()

	slog.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// RunNow immediately executes a job outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	return s.run(ctx, name, job)
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	slog.Info("Starting job", "job", name)
	start := time.Now()
	if err := job(ctx); err != nil {
		return err
	}
	slog.Info("Job completed", "job", name, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		entry := s.cron.Entry(entryID)
		if !entry.Valid() {
			continue
		}
		infos = append(infos, JobInfo{
			Name:    name,
			NextRun: entry.Next,
			LastRun: entry.Prev,
		})
	}

	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run"`
}
