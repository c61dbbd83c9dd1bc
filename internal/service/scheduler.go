package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/core"
	"github.com/stevenleohash/fortune-flow-end/internal/data"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
)

// SchedulerServiceOptions holds the dependencies for creating a SchedulerService.
type SchedulerServiceOptions struct {
	Config       config.SchedulerConfig
	Store        core.JobStore
	Executor     core.JobExecutor
	Planner      *CronPlanner
	Logger       *slog.Logger
	TimeProvider data.TimeProvider
}

// SchedulerService maintains one live timer per enabled job and keeps each
// job's next run time accurate. Timers fire independently; a single job's
// failure never stops the others.
type SchedulerService struct {
	cfg          config.SchedulerConfig
	store        core.JobStore
	executor     core.JobExecutor
	planner      *CronPlanner
	logger       *slog.Logger
	timeProvider data.TimeProvider

	runner *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
	started bool
}

// NewSchedulerService creates a SchedulerService with the given options.
func NewSchedulerService(opts SchedulerServiceOptions) *SchedulerService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeProvider := opts.TimeProvider
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}

	return &SchedulerService{
		cfg:          opts.Config,
		store:        opts.Store,
		executor:     opts.Executor,
		planner:      opts.Planner,
		logger:       logger.With("component", "scheduler"),
		timeProvider: timeProvider,
		runner:       cron.New(cron.WithLocation(opts.Planner.Location())),
		entries:      make(map[string]cron.EntryID),
	}
}

// Start loads all enabled jobs, installs their timers, and starts the runner.
// Calling Start on a started scheduler is a no-op.
func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.installAll(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	s.runner.Start()
	s.logger.InfoContext(ctx, "scheduler started", "timers", s.TimerCount())
	return nil
}

// Reload destroys every installed timer and reinstalls from the store's
// current set of enabled jobs. Schedule and enabled-flag changes made by the
// external CRUD layer take effect through this full reconciliation.
func (s *SchedulerService) Reload(ctx context.Context) error {
	s.mu.Lock()
	for id, entry := range s.entries {
		s.runner.Remove(entry)
		delete(s.entries, id)
	}
	s.mu.Unlock()

	if err := s.installAll(ctx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "scheduler reloaded", "timers", s.TimerCount())
	return nil
}

// Schedule validates the job's cron expression, installs a recurring timer for
// it (replacing any prior timer for the same id), and persists the next run
// time. A malformed expression fails with InvalidScheduleError and installs
// nothing.
func (s *SchedulerService) Schedule(ctx context.Context, job *model.ScheduledJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	sched, err := s.planner.Parse(job.CronExpression)
	if err != nil {
		return &apperrors.InvalidScheduleError{
			JobID:      job.ID,
			Expression: job.CronExpression,
			Cause:      err,
		}
	}

	jobID := job.ID

	s.mu.Lock()
	if old, ok := s.entries[jobID]; ok {
		s.runner.Remove(old)
	}
	s.entries[jobID] = s.runner.Schedule(sched, cron.FuncJob(func() {
		s.fire(jobID)
	}))
	s.mu.Unlock()

	next := sched.Next(s.timeProvider.Now().In(s.planner.Location()))
	if _, err := s.store.UpdateJob(ctx, jobID, model.JobUpdate{NextRunAt: &next}); err != nil {
		return fmt.Errorf("persist next run for job %s: %w", jobID, err)
	}

	s.logger.InfoContext(ctx, "timer installed",
		"job_id", jobID,
		"cron", job.CronExpression,
		"next_run_at", next,
	)
	return nil
}

// Unschedule destroys and removes the timer for a job id. No-op if absent.
func (s *SchedulerService) Unschedule(jobID string) {
	s.mu.Lock()
	entry, ok := s.entries[jobID]
	if ok {
		s.runner.Remove(entry)
		delete(s.entries, jobID)
	}
	s.mu.Unlock()

	if ok {
		s.logger.Info("timer removed", "job_id", jobID)
	}
}

// ComputeNextRun returns the next fire time strictly after from in the
// configured timezone. A parse failure falls back to from plus a fixed delay.
func (s *SchedulerService) ComputeNextRun(cronExpression string, from time.Time) time.Time {
	return s.planner.Next(cronExpression, from)
}

// Stop halts the timer runner and waits for any fire callbacks still running.
func (s *SchedulerService) Stop() {
	<-s.runner.Stop().Done()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// TimerCount returns the number of installed timers.
func (s *SchedulerService) TimerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// installAll schedules every enabled job from the store. Jobs with malformed
// expressions are logged and skipped; one bad job never blocks the rest.
func (s *SchedulerService) installAll(ctx context.Context) error {
	jobs, err := s.store.ListEnabledJobs(ctx)
	if err != nil {
		return fmt.Errorf("list enabled jobs: %w", err)
	}

	for i := range jobs {
		job := &jobs[i]
		if err := s.Schedule(ctx, job); err != nil {
			if apperrors.IsInvalidSchedule(err) {
				s.logger.WarnContext(ctx, "skipping job with invalid schedule",
					"job_id", job.ID,
					"cron", job.CronExpression,
					"error", err,
				)
				continue
			}
			s.logger.ErrorContext(ctx, "schedule job failed",
				"job_id", job.ID,
				"error", err,
			)
		}
	}
	return nil
}

// fire handles one timer trigger. It refetches the job so externally-made
// changes are honored, persists the following run time, and hands the job to
// the executor. Errors are logged and swallowed so one misbehaving job cannot
// halt the other timers.
func (s *SchedulerService) fire(jobID string) {
	ctx := context.Background()

	job, err := s.store.FindJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("job removed from store, dropping timer", "job_id", jobID)
			s.Unschedule(jobID)
			return
		}
		s.logger.Error("load job on trigger failed", "job_id", jobID, "error", err)
		return
	}

	if !job.Enabled {
		s.logger.Info("job disabled, dropping timer", "job_id", jobID)
		s.Unschedule(jobID)
		return
	}

	next := s.planner.Next(job.CronExpression, s.timeProvider.Now())
	if _, err := s.store.UpdateJob(ctx, jobID, model.JobUpdate{NextRunAt: &next}); err != nil {
		s.logger.Warn("persist next run on trigger failed", "job_id", jobID, "error", err)
	}

	if err := s.executor.Execute(ctx, job); err != nil {
		if apperrors.IsConcurrentExecution(err) {
			s.logger.Info("trigger skipped, previous run still in flight",
				"job_id", jobID,
				"shop_id", job.ShopID,
			)
			return
		}
		s.logger.Error("trigger failed", "job_id", jobID, "error", err)
	}
}
