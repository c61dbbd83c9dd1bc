package service

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/core"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/statsd"
)

// ReaperServiceOptions holds the dependencies for creating a ReaperService.
type ReaperServiceOptions struct {
	Config   config.ReaperConfig
	Executor config.ExecutorConfig
	Repo     core.ReaperRepository
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// ReaperService repairs state a crashed or restarted process leaves behind: a
// restart loses all in-flight correlations, so executions stuck in running
// past the dispatch timeout can never reconcile on their own. It also prunes
// old execution history.
type ReaperService struct {
	cfg     config.ReaperConfig
	exec    config.ExecutorConfig
	repo    core.ReaperRepository
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService creates a ReaperService with the given options.
func NewReaperService(opts ReaperServiceOptions) *ReaperService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ReaperService{
		cfg:     opts.Config,
		exec:    opts.Executor,
		repo:    opts.Repo,
		logger:  logger.With("component", "reaper"),
		metrics: opts.Metrics,
	}
}

// Run sweeps once at startup, then on every tick until the context is
// canceled. Ticks are jittered so replicas sharing a store do not sweep in
// lockstep.
func (r *ReaperService) Run(ctx context.Context) error {
	if r.cfg.SweepOnStart {
		r.Sweep(ctx)
	}

	jitter := time.Duration(rand.Int63n(int64(r.cfg.Interval / 10)))
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(jitter):
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one full maintenance pass. Each step is independent; a
// failing step is logged and the rest still run.
func (r *ReaperService) Sweep(ctx context.Context) {
	start := time.Now()

	// An execution is stale once it has been running longer than any live
	// dispatch could still be waiting.
	staleAge := r.exec.DispatchTimeout + r.cfg.RunningGrace

	stale, err := r.repo.FailStaleRunningExecutions(ctx, staleAge, r.cfg.BatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "fail stale executions failed", "error", err)
	} else if stale > 0 {
		r.logger.InfoContext(ctx, "stale executions failed", "count", stale)
	}
	r.count("reaper.stale_executions", stale)

	orphaned, err := r.repo.ResetOrphanedRunningJobs(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "reset orphaned jobs failed", "error", err)
	} else if orphaned > 0 {
		r.logger.InfoContext(ctx, "orphaned running jobs reset", "count", orphaned)
	}
	r.count("reaper.orphaned_jobs", orphaned)

	completed, err := r.repo.DeleteOldExecutions(ctx, core.DeleteOldExecutionsParams{
		Status:    model.ExecutionStatusCompleted,
		MaxAge:    r.cfg.CompletedMaxAge,
		BatchSize: r.cfg.BatchSize,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "delete old completed executions failed", "error", err)
	}
	r.count("reaper.deleted_completed", completed)

	failed, err := r.repo.DeleteOldExecutions(ctx, core.DeleteOldExecutionsParams{
		Status:    model.ExecutionStatusFailed,
		MaxAge:    r.cfg.FailedMaxAge,
		BatchSize: r.cfg.BatchSize,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "delete old failed executions failed", "error", err)
	}
	r.count("reaper.deleted_failed", failed)

	if r.metrics != nil {
		r.metrics.Timing("reaper.sweep.duration", time.Since(start), nil)
	}
}

func (r *ReaperService) count(name string, n int64) {
	if r.metrics != nil && n > 0 {
		r.metrics.Count(name, n, nil)
	}
}
