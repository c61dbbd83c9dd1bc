// Package model defines the core data types and structures used throughout the fortune-flow coordinator.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the kind of automation work a scheduled job performs.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current runtime state of a scheduled job.
type JobStatus string

const (
	// JobTypeAutoFlow represents the full shop automation flow.
	JobTypeAutoFlow JobType = "auto_flow"
	// JobTypeLogin represents a login-refresh job.
	JobTypeLogin JobType = "login"

	// JobStatusPending indicates a job is idle, waiting for its next trigger.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job has an in-flight execution.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the most recent execution succeeded.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the most recent execution failed.
	JobStatusFailed JobStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeAutoFlow || t == JobTypeLogin
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// ScheduledJob represents a recurring automation job bound to one shop and one job type.
// At most one ScheduledJob exists per (shop_id, job_type) pair; the store enforces
// this with a uniqueness constraint.
type ScheduledJob struct {
	ID             string          `json:"id"                    db:"id"`
	ShopID         string          `json:"shop_id"               db:"shop_id"`
	Type           JobType         `json:"type"                  db:"job_type"`
	CronExpression string          `json:"cron_expression"       db:"cron_expression"`
	Enabled        bool            `json:"enabled"               db:"enabled"`
	Status         JobStatus       `json:"status"                db:"status"`
	Config         map[string]any  `json:"config,omitempty"      db:"config"`
	NextRunAt      *time.Time      `json:"next_run_at,omitempty" db:"next_run_at"`
	LastRunAt      *time.Time      `json:"last_run_at,omitempty" db:"last_run_at"`
	RunCount       int             `json:"run_count"             db:"run_count"`
	SuccessCount   int             `json:"success_count"         db:"success_count"`
	FailureCount   int             `json:"failure_count"         db:"failure_count"`
	CreatedAt      time.Time       `json:"created_at"            db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"            db:"updated_at"`
}

// Validate validates the fields an external caller must provide before scheduling.
func (j *ScheduledJob) Validate() error {
	if j.ID == "" {
		return errors.New("job id is required")
	}
	if j.ShopID == "" {
		return errors.New("shop id is required")
	}
	if !j.Type.Valid() {
		return errors.New("invalid job type")
	}
	if strings.TrimSpace(j.CronExpression) == "" {
		return errors.New("cron expression is required")
	}
	return nil
}

// JobUpdate carries the mutable runtime-state fields of a ScheduledJob.
// Nil fields are left untouched by the store.
type JobUpdate struct {
	Status            *JobStatus
	NextRunAt         *time.Time
	LastRunAt         *time.Time
	RunCountDelta     int
	SuccessCountDelta int
	FailureCountDelta int
}
