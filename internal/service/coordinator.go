package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stevenleohash/fortune-flow-end/internal/core"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
)

// CoordinatorOptions holds the dependencies for creating a Coordinator.
type CoordinatorOptions struct {
	Scheduler core.JobScheduler
	Executor  core.JobExecutor
	Logger    *slog.Logger
}

// Coordinator is the surface the external CRUD layer calls when jobs are
// created, updated, deleted, or manually triggered. It only delegates; all
// state lives in the scheduler and executor.
type Coordinator struct {
	scheduler core.JobScheduler
	executor  core.JobExecutor
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator with the given options.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		scheduler: opts.Scheduler,
		executor:  opts.Executor,
		logger:    logger.With("component", "coordinator"),
	}
}

// ScheduleJob installs or replaces the timer for a job. Surfaces
// InvalidScheduleError for malformed cron expressions.
func (c *Coordinator) ScheduleJob(ctx context.Context, job *model.ScheduledJob) error {
	if err := c.scheduler.Schedule(ctx, job); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.ID, err)
	}
	return nil
}

// Reload rebuilds every timer from the store's current enabled set.
func (c *Coordinator) Reload(ctx context.Context) error {
	return c.scheduler.Reload(ctx)
}

// RemoveJob destroys the timer for a deleted or disabled job.
func (c *Coordinator) RemoveJob(jobID string) {
	c.scheduler.Unschedule(jobID)
}

// ExecuteNow triggers one run of a job outside its timer. Admission and
// mutual-exclusion errors surface to the caller.
func (c *Coordinator) ExecuteNow(ctx context.Context, jobID string) error {
	return c.executor.ExecuteNow(ctx, jobID)
}
