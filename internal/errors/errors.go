// Package errors defines the coordinator's error kinds and database error mapping.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// InvalidScheduleError indicates a malformed cron expression. The job carrying
// it is skipped and never retried automatically until its schedule is edited.
type InvalidScheduleError struct {
	JobID      string
	Expression string
	Cause      error
}

// Error implements the error interface.
func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule %q for job %s: %v", e.Expression, e.JobID, e.Cause)
}

// Unwrap returns the underlying parse error.
func (e *InvalidScheduleError) Unwrap() error { return e.Cause }

// ConcurrentExecutionError indicates the mutual-exclusion check found another
// running execution for the same (shop, job type) pair. The new run is rejected,
// not queued.
type ConcurrentExecutionError struct {
	ShopID  string
	JobType string
}

// Error implements the error interface.
func (e *ConcurrentExecutionError) Error() string {
	return fmt.Sprintf("shop %s already has a running %s job", e.ShopID, e.JobType)
}

// NoWorkerAvailableError indicates zero workers were connected at dispatch time.
// The attempt fails immediately without waiting for the dispatch timeout.
type NoWorkerAvailableError struct {
	JobID string
}

// Error implements the error interface.
func (e *NoWorkerAvailableError) Error() string {
	return fmt.Sprintf("no worker available to run job %s", e.JobID)
}

// ExecutionTimeoutError indicates the dispatch deadline elapsed with no
// correlated result from any worker.
type ExecutionTimeoutError struct {
	JobID   string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("job %s timed out after %s waiting for a worker result", e.JobID, e.Timeout)
}

// WorkerPushError indicates a transport-level failure while pushing a task to
// the worker channel.
type WorkerPushError struct {
	JobID string
	Cause error
}

// Error implements the error interface.
func (e *WorkerPushError) Error() string {
	return fmt.Sprintf("push job %s to workers: %v", e.JobID, e.Cause)
}

// Unwrap returns the transport error.
func (e *WorkerPushError) Unwrap() error { return e.Cause }

// IsInvalidSchedule checks if an error is an InvalidScheduleError.
func IsInvalidSchedule(err error) bool {
	var target *InvalidScheduleError
	return errors.As(err, &target)
}

// IsConcurrentExecution checks if an error is a ConcurrentExecutionError.
func IsConcurrentExecution(err error) bool {
	var target *ConcurrentExecutionError
	return errors.As(err, &target)
}

// IsNoWorkerAvailable checks if an error is a NoWorkerAvailableError.
func IsNoWorkerAvailable(err error) bool {
	var target *NoWorkerAvailableError
	return errors.As(err, &target)
}

// IsExecutionTimeout checks if an error is an ExecutionTimeoutError.
func IsExecutionTimeout(err error) bool {
	var target *ExecutionTimeoutError
	return errors.As(err, &target)
}
