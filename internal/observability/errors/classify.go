// Package errors normalizes error types for metric and log tagging.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
)

// Classify returns a normalized error type name suitable for tagging metrics
// and logs. Known coordinator error kinds map to stable tag values; anything
// else falls back to the innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case apperrors.IsInvalidSchedule(err):
		return "invalid_schedule"
	case apperrors.IsConcurrentExecution(err):
		return "concurrent_execution"
	case apperrors.IsNoWorkerAvailable(err):
		return "no_worker_available"
	case apperrors.IsExecutionTimeout(err):
		return "execution_timeout"
	case goerrors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case goerrors.Is(err, apperrors.ErrDuplicateJob):
		return "duplicate_job"
	case goerrors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	var pushErr *apperrors.WorkerPushError
	if goerrors.As(err, &pushErr) {
		return "worker_push"
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
