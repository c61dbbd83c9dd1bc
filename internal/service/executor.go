package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/core"
	"github.com/stevenleohash/fortune-flow-end/internal/data"
	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/metrics"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/statsd"
)

// ExecutorServiceOptions holds the dependencies for creating an ExecutorService.
type ExecutorServiceOptions struct {
	Config       config.ExecutorConfig
	Store        core.JobStore
	Shops        core.ShopRepository
	Channel      core.WorkerChannel
	Publisher    core.StatusPublisher
	Planner      *CronPlanner
	Logger       *slog.Logger
	Metrics      statsd.Sink
	TimeProvider data.TimeProvider
}

// ExecutorService is the admission-control and state-machine core. It rejects
// conflicting runs, bounds in-flight dispatches with a concurrency ceiling and
// a rate limit, pushes work to workers, waits for a correlated result or a
// timeout, and reconciles persisted job and execution state.
//
// Timers fire unthrottled; the admission gate here is the sole throttling
// point before work reaches a worker.
type ExecutorService struct {
	cfg          config.ExecutorConfig
	store        core.JobStore
	shops        core.ShopRepository
	channel      core.WorkerChannel
	publisher    core.StatusPublisher
	planner      *CronPlanner
	logger       *slog.Logger
	metrics      statsd.Sink
	timeProvider data.TimeProvider

	sem          *semaphore.Weighted
	limiter      *rate.Limiter
	correlations *correlationTable
	inflight     sync.WaitGroup
}

// NewExecutorService creates an ExecutorService with the given options.
func NewExecutorService(opts ExecutorServiceOptions) *ExecutorService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeProvider := opts.TimeProvider
	if timeProvider == nil {
		timeProvider = &data.RealTimeProvider{}
	}

	return &ExecutorService{
		cfg:          opts.Config,
		store:        opts.Store,
		shops:        opts.Shops,
		channel:      opts.Channel,
		publisher:    opts.Publisher,
		planner:      opts.Planner,
		logger:       logger.With("component", "executor"),
		metrics:      opts.Metrics,
		timeProvider: timeProvider,
		sem:          semaphore.NewWeighted(int64(opts.Config.MaxConcurrent)),
		limiter: rate.NewLimiter(
			rate.Limit(opts.Config.AdmissionsPerSecond),
			opts.Config.AdmissionsPerSecond,
		),
		correlations: newCorrelationTable(),
	}
}

// HandleResult routes an inbound worker result to the dispatcher waiting on
// its task id. Late and duplicate results have no waiter and are dropped.
func (e *ExecutorService) HandleResult(result model.TaskResultData) {
	if !e.correlations.Resolve(result.TaskID, result.Result) {
		e.logger.Info("unmatched task result dropped",
			"task_id", result.TaskID,
			"code", result.Result.Code,
		)
	}
}

// Execute runs one attempt of the given job. The mutual-exclusion check,
// execution record, and job transition to running happen synchronously; the
// admitted dispatch-and-wait work runs on its own goroutine, so the caller is
// never parked for the dispatch timeout. A rejected attempt returns
// ConcurrentExecutionError and creates no execution record.
func (e *ExecutorService) Execute(ctx context.Context, job *model.ScheduledJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("execute job: %w", err)
	}

	conflict, err := e.store.FindRunningConflict(ctx, job.ShopID, job.Type, "")
	if err != nil {
		return fmt.Errorf("conflict check for job %s: %w", job.ID, err)
	}
	if conflict {
		return &apperrors.ConcurrentExecutionError{ShopID: job.ShopID, JobType: string(job.Type)}
	}

	now := e.timeProvider.Now().UTC()
	exec := &model.Execution{
		ID:        uuid.NewString(),
		JobID:     job.ID,
		ShopID:    job.ShopID,
		Status:    model.ExecutionStatusRunning,
		StartedAt: now,
	}
	if err := e.store.CreateExecution(ctx, exec); err != nil {
		return fmt.Errorf("create execution for job %s: %w", job.ID, err)
	}

	running := model.JobStatusRunning
	updated, err := e.store.UpdateJob(ctx, job.ID, model.JobUpdate{
		Status:        &running,
		LastRunAt:     &now,
		RunCountDelta: 1,
	})
	if err != nil {
		e.failExecutionRecord(ctx, exec.ID, now, fmt.Errorf("update job: %w", err))
		return fmt.Errorf("transition job %s to running: %w", job.ID, err)
	}

	e.publishJobStatus(ctx, updated, exec.ID, nil, "")
	metrics.EmitExecutionLifecycle(e.metrics, metrics.ExecutionMetric{
		JobType:    string(job.Type),
		Transition: "started",
	})
	e.logger.InfoContext(ctx, "execution started",
		"job_id", job.ID,
		"shop_id", job.ShopID,
		"job_type", job.Type,
		"execution_id", exec.ID,
	)

	e.inflight.Add(1)
	go e.runAttempt(context.WithoutCancel(ctx), updated, exec)
	return nil
}

// ExecuteNow looks up the job and invokes the same path as Execute. Used for
// manual triggers; admission and mutual-exclusion errors surface to the caller
// instead of being swallowed like on the timer path.
func (e *ExecutorService) ExecuteNow(ctx context.Context, jobID string) error {
	job, err := e.store.FindJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("find job %s: %w", jobID, err)
	}
	return e.Execute(ctx, job)
}

// Drain blocks until every in-flight dispatch has reconciled.
func (e *ExecutorService) Drain() {
	e.inflight.Wait()
}

// PendingCorrelations returns the number of dispatches waiting on a result.
func (e *ExecutorService) PendingCorrelations() int {
	return e.correlations.Len()
}

// runAttempt carries one admitted execution through dispatch, result wait, and
// reconciliation. Errors here cannot reach a caller; everything lands on the
// execution record and in the status broadcast.
func (e *ExecutorService) runAttempt(ctx context.Context, job *model.ScheduledJob, exec *model.Execution) {
	defer e.inflight.Done()

	if err := e.limiter.Wait(ctx); err != nil {
		e.reconcile(ctx, job, exec, nil, fmt.Errorf("admission rate wait: %w", err))
		return
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.reconcile(ctx, job, exec, nil, fmt.Errorf("admission slot wait: %w", err))
		return
	}
	defer e.sem.Release(1)

	// State may have changed while waiting for admission.
	conflict, err := e.store.FindRunningConflict(ctx, job.ShopID, job.Type, job.ID)
	if err != nil {
		e.reconcile(ctx, job, exec, nil, fmt.Errorf("conflict recheck: %w", err))
		return
	}
	if conflict {
		e.reconcile(ctx, job, exec, nil, &apperrors.ConcurrentExecutionError{
			ShopID:  job.ShopID,
			JobType: string(job.Type),
		})
		return
	}

	if e.channel.ConnectionCount() == 0 {
		e.reconcile(ctx, job, exec, nil, &apperrors.NoWorkerAvailableError{JobID: job.ID})
		return
	}

	shopData, err := e.shops.GetShopData(ctx, job.ShopID)
	if err != nil {
		e.reconcile(ctx, job, exec, nil, fmt.Errorf("load shop data: %w", err))
		return
	}

	payload := model.TaskExecuteData{
		TaskID:    job.ID,
		ShopData:  shopData,
		TaskType:  job.Type,
		Config:    job.Config,
		Timestamp: e.timeProvider.Now().UnixMilli(),
	}

	resultCh := e.correlations.Register(job.ID)

	sent, err := e.channel.Dispatch(job.ID, payload)
	if err != nil {
		e.correlations.Remove(job.ID)
		e.reconcile(ctx, job, exec, nil, &apperrors.WorkerPushError{JobID: job.ID, Cause: err})
		return
	}
	if sent == 0 {
		e.correlations.Remove(job.ID)
		e.reconcile(ctx, job, exec, nil, &apperrors.NoWorkerAvailableError{JobID: job.ID})
		return
	}

	e.appendLog(ctx, exec.ID, model.LogLevelInfo,
		fmt.Sprintf("dispatched to %d worker(s)", sent), nil)

	timer := time.NewTimer(e.cfg.DispatchTimeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		// Resolve already removed the correlation entry.
		e.reconcile(ctx, job, exec, &result, nil)
	case <-timer.C:
		e.correlations.Remove(job.ID)
		e.reconcile(ctx, job, exec, nil, &apperrors.ExecutionTimeoutError{
			JobID:   job.ID,
			Timeout: e.cfg.DispatchTimeout,
		})
	}
}

// reconcile is the single convergence point for success, failure, and timeout.
// It closes the execution record, updates the job's status, counters, and next
// run time, and broadcasts the outcome.
func (e *ExecutorService) reconcile(
	ctx context.Context,
	job *model.ScheduledJob,
	exec *model.Execution,
	result *model.WorkerResult,
	cause error,
) {
	now := e.timeProvider.Now().UTC()
	duration := now.Sub(exec.StartedAt)
	durationMs := duration.Milliseconds()

	success := cause == nil && result != nil && result.Success()
	if cause == nil && result != nil && !result.Success() {
		cause = fmt.Errorf("worker reported failure: code=%d message=%q", result.Code, result.Message)
	}

	next := e.planner.Next(job.CronExpression, now)

	execUpd := model.ExecutionUpdate{CompletedAt: &now, DurationMs: &durationMs}
	jobUpd := model.JobUpdate{NextRunAt: &next}
	var errMsg string

	if success {
		completed := model.ExecutionStatusCompleted
		execUpd.Status = &completed
		if raw, mErr := json.Marshal(result); mErr == nil {
			execUpd.Result = raw
		}

		jobCompleted := model.JobStatusCompleted
		jobUpd.Status = &jobCompleted
		jobUpd.SuccessCountDelta = 1
	} else {
		failed := model.ExecutionStatusFailed
		execUpd.Status = &failed
		errMsg = cause.Error()
		execUpd.Error = &errMsg

		jobFailed := model.JobStatusFailed
		jobUpd.Status = &jobFailed
		jobUpd.FailureCountDelta = 1
	}

	if err := e.store.UpdateExecution(ctx, exec.ID, execUpd); err != nil {
		e.logger.ErrorContext(ctx, "reconcile execution update failed",
			"job_id", job.ID, "execution_id", exec.ID, "error", err)
	}

	updated, err := e.store.UpdateJob(ctx, job.ID, jobUpd)
	if err != nil {
		e.logger.ErrorContext(ctx, "reconcile job update failed",
			"job_id", job.ID, "execution_id", exec.ID, "error", err)
		updated = job
	}

	if success {
		e.appendLog(ctx, exec.ID, model.LogLevelInfo, "execution completed", execUpd.Result)
		e.logger.InfoContext(ctx, "execution completed",
			"job_id", job.ID,
			"execution_id", exec.ID,
			"duration_ms", durationMs,
		)
	} else {
		e.appendLog(ctx, exec.ID, model.LogLevelError, errMsg, nil)
		e.logger.WarnContext(ctx, "execution failed",
			"job_id", job.ID,
			"execution_id", exec.ID,
			"duration_ms", durationMs,
			"error", cause,
		)
	}

	e.publishJobStatus(ctx, updated, exec.ID, &durationMs, errMsg)

	metrics.EmitExecutionLifecycle(e.metrics, metrics.ExecutionMetric{
		JobType:    string(job.Type),
		Transition: "reconciled",
		Result:     reconcileResult(success, cause),
		Duration:   duration,
		Err:        cause,
	})
}

// failExecutionRecord closes a just-created execution whose job row could not
// transition to running, so the record does not dangle as running forever.
func (e *ExecutorService) failExecutionRecord(ctx context.Context, execID string, startedAt time.Time, cause error) {
	now := e.timeProvider.Now().UTC()
	durationMs := now.Sub(startedAt).Milliseconds()
	failed := model.ExecutionStatusFailed
	errMsg := cause.Error()

	if err := e.store.UpdateExecution(ctx, execID, model.ExecutionUpdate{
		Status:      &failed,
		CompletedAt: &now,
		DurationMs:  &durationMs,
		Error:       &errMsg,
	}); err != nil {
		e.logger.ErrorContext(ctx, "close dangling execution failed",
			"execution_id", execID, "error", err)
	}
}

func (e *ExecutorService) publishJobStatus(
	ctx context.Context,
	job *model.ScheduledJob,
	executionID string,
	durationMs *int64,
	errMsg string,
) {
	e.publisher.PublishStatus(ctx, model.StatusUpdateData{
		TaskID:       job.ID,
		ExecutionID:  executionID,
		Status:       string(job.Status),
		Error:        errMsg,
		DurationMs:   durationMs,
		RunCount:     job.RunCount,
		SuccessCount: job.SuccessCount,
		FailureCount: job.FailureCount,
		NextRunAt:    job.NextRunAt,
		Timestamp:    e.timeProvider.Now().UnixMilli(),
	})
}

func (e *ExecutorService) appendLog(
	ctx context.Context,
	executionID string,
	level model.LogLevel,
	message string,
	details json.RawMessage,
) {
	entry := model.ExecutionLogEntry{
		Timestamp: e.timeProvider.Now().UTC(),
		Level:     level,
		Message:   message,
		Details:   details,
	}
	if err := e.store.AppendExecutionLog(ctx, executionID, entry); err != nil {
		e.logger.WarnContext(ctx, "append execution log failed",
			"execution_id", executionID, "error", err)
	}
}

func reconcileResult(success bool, cause error) string {
	switch {
	case success:
		return metrics.ResultSuccess
	case apperrors.IsExecutionTimeout(cause):
		return metrics.ResultTimeout
	case apperrors.IsConcurrentExecution(cause):
		return metrics.ResultNoop
	default:
		return metrics.ResultError
	}
}
