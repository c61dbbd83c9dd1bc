// Package core declares the interfaces and shared contracts of the fortune-flow coordinator.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
)

// JobStore defines the persistence operations the scheduler and executor need.
// The backing store additionally guarantees a uniqueness constraint on
// (shop_id, job_type) for scheduled jobs; it is relied upon, not enforced, here.
type JobStore interface {
	// ListEnabledJobs returns every enabled scheduled job.
	ListEnabledJobs(ctx context.Context) ([]model.ScheduledJob, error)

	// FindJob returns the job with the given id, or errors.ErrNotFound.
	FindJob(ctx context.Context, id string) (*model.ScheduledJob, error)

	// UpdateJob applies the non-nil fields of upd and returns the updated row,
	// so callers can publish fresh counters without a second read.
	UpdateJob(ctx context.Context, id string, upd model.JobUpdate) (*model.ScheduledJob, error)

	// CreateExecution persists a new execution record.
	CreateExecution(ctx context.Context, exec *model.Execution) error

	// UpdateExecution applies the non-nil fields of upd to the execution.
	UpdateExecution(ctx context.Context, id string, upd model.ExecutionUpdate) error

	// AppendExecutionLog appends one entry to an execution's ordered log.
	AppendExecutionLog(ctx context.Context, executionID string, entry model.ExecutionLogEntry) error

	// FindRunningConflict reports whether any running execution exists for the
	// same (shopID, jobType) pair, excluding executions of excludeJobID. An
	// empty excludeJobID excludes nothing; the executor passes "" before it has
	// created its own execution record and the job id afterwards. This is an
	// advisory read-then-decide check, not an atomic claim; a narrow race
	// window between near-simultaneous triggers is accepted.
	FindRunningConflict(ctx context.Context, shopID string, jobType model.JobType, excludeJobID string) (bool, error)
}

// ShopRepository provides read access to shop records owned by the external
// CRUD layer. The coordinator only needs the opaque payload used to build
// dispatch payloads.
type ShopRepository interface {
	// GetShopData returns the shop's dispatch payload data, or errors.ErrNotFound.
	GetShopData(ctx context.Context, shopID string) (json.RawMessage, error)
}

// CacheRepository defines the byte-oriented cache operations used to front
// shop payload reads.
type CacheRepository interface {
	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value for key, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Returns true if a value was removed.
	Delete(ctx context.Context, key string) (bool, error)
}

// WorkerChannel is the surface of the worker hub consumed by the executor and
// the status publisher.
type WorkerChannel interface {
	// ConnectionCount returns the number of currently open worker connections.
	ConnectionCount() int

	// Dispatch pushes a task:execute message to every connected worker and
	// returns the number of successful sends. The protocol has no pickup
	// acknowledgment; whichever worker picks the task up runs it.
	Dispatch(taskID string, data model.TaskExecuteData) (int, error)

	// Broadcast sends an arbitrary envelope to every connected worker and
	// returns the number of successful sends. Per-connection failures are
	// logged, never propagated.
	Broadcast(msgType string, data any) int
}

// StatusPublisher fans out job/execution state transitions to observers.
type StatusPublisher interface {
	// PublishStatus broadcasts one status update. Best effort; send failures
	// never affect the executing job.
	PublishStatus(ctx context.Context, upd model.StatusUpdateData)
}

// JobExecutor is the admission-control and state-machine core.
type JobExecutor interface {
	// Execute runs one attempt of the given job through admission control and
	// dispatch. Timer-triggered callers swallow the returned error after
	// logging; manual callers surface it.
	Execute(ctx context.Context, job *model.ScheduledJob) error

	// ExecuteNow looks up the job by id and invokes the same path as Execute,
	// propagating admission and mutual-exclusion errors to the caller.
	ExecuteNow(ctx context.Context, jobID string) error
}

// JobScheduler maintains one live timer per enabled job.
type JobScheduler interface {
	// Start loads all enabled jobs and installs timers. Idempotent.
	Start(ctx context.Context) error
	// Reload destroys every installed timer and reinstalls from the store.
	Reload(ctx context.Context) error
	// Schedule validates and installs (or replaces) the timer for one job and
	// persists its next run time.
	Schedule(ctx context.Context, job *model.ScheduledJob) error
	// Unschedule removes the timer for a job id. No-op if absent.
	Unschedule(jobID string)
	// ComputeNextRun returns the next fire time strictly after from in the
	// configured timezone. Parse failures fall back to from plus a fixed delay.
	ComputeNextRun(cronExpression string, from time.Time) time.Time
	// Stop halts the timer runner.
	Stop()
}

// DeleteOldExecutionsParams bundles the arguments for ReaperRepository.DeleteOldExecutions.
type DeleteOldExecutionsParams struct {
	Status    model.ExecutionStatus
	MaxAge    time.Duration
	BatchSize int
}

// ReaperRepository defines the cleanup operations for stale and aged executions.
type ReaperRepository interface {
	// FailStaleRunningExecutions marks executions running longer than maxAge as
	// failed and returns the number of rows updated.
	FailStaleRunningExecutions(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)

	// ResetOrphanedRunningJobs moves jobs stuck in running with no live
	// execution back to failed and returns the number of rows updated.
	ResetOrphanedRunningJobs(ctx context.Context) (int64, error)

	// DeleteOldExecutions removes executions (and their logs) of the given
	// status older than MaxAge, at most BatchSize rows per call.
	DeleteOldExecutions(ctx context.Context, p DeleteOldExecutionsParams) (int64, error)
}
