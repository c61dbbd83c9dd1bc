package model

import (
	"encoding/json"
	"time"
)

// ExecutionStatus represents the state of a single run attempt.
type ExecutionStatus string

const (
	// ExecutionStatusRunning indicates the attempt has been dispatched or is queued for dispatch.
	ExecutionStatusRunning ExecutionStatus = "running"
	// ExecutionStatusCompleted indicates the worker reported success.
	ExecutionStatusCompleted ExecutionStatus = "completed"
	// ExecutionStatusFailed indicates the attempt failed, timed out, or was rejected.
	ExecutionStatusFailed ExecutionStatus = "failed"
)

// Valid returns true if the ExecutionStatus is valid.
func (s ExecutionStatus) Valid() bool {
	return s == ExecutionStatusRunning || s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// Execution represents one concrete run attempt of a scheduled job. It is owned
// exclusively by the executor for its lifetime and immutable once CompletedAt is
// set, except for log appends before completion.
type Execution struct {
	ID          string          `json:"id"                     db:"id"`
	JobID       string          `json:"job_id"                 db:"job_id"`
	ShopID      string          `json:"shop_id"                db:"shop_id"`
	Status      ExecutionStatus `json:"status"                 db:"status"`
	StartedAt   time.Time       `json:"started_at"             db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs  *int64          `json:"duration_ms,omitempty"  db:"duration_ms"`
	Result      json.RawMessage `json:"result,omitempty"       db:"result"`
	Error       *string         `json:"error,omitempty"        db:"error"`
	CreatedAt   time.Time       `json:"created_at"             db:"created_at"`
}

// ExecutionUpdate carries the fields written during result reconciliation.
// Nil fields are left untouched by the store.
type ExecutionUpdate struct {
	Status      *ExecutionStatus
	CompletedAt *time.Time
	DurationMs  *int64
	Result      json.RawMessage
	Error       *string
}

// LogLevel classifies an execution log entry.
type LogLevel string

const (
	// LogLevelInfo marks informational progress entries.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn marks recoverable anomalies.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError marks failures.
	LogLevelError LogLevel = "error"
)

// ExecutionLogEntry is one element of an execution's append-only log.
type ExecutionLogEntry struct {
	Timestamp time.Time       `json:"timestamp" db:"ts"`
	Level     LogLevel        `json:"level"     db:"level"`
	Message   string          `json:"message"   db:"message"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
}

// WorkerResult is the payload a remote worker returns for a dispatched task.
// Code 200 means success; any other code is failure.
type WorkerResult struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Success reports whether the worker result code indicates success.
func (r WorkerResult) Success() bool {
	return r.Code == 200
}
