package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stevenleohash/fortune-flow-end/internal/core"
)

// ReaperRepo provides cleanup operations for stale and aged executions.
// It implements core.ReaperRepository.
type ReaperRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewReaperRepo creates a new ReaperRepo instance with the given database connection.
func NewReaperRepo(db *sql.DB) *ReaperRepo {
	return &ReaperRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// FailStaleRunningExecutions marks executions that have been running longer
// than maxAge as failed. These were orphaned by a crash or restart: their
// in-memory correlations are gone, so no result will ever reconcile them.
func (r *ReaperRepo) FailStaleRunningExecutions(
	ctx context.Context,
	maxAge time.Duration,
	batchSize int,
) (int64, error) {
	now := r.timeProvider.Now().UTC()
	cutoff := now.Add(-maxAge)

	query := `
		UPDATE executions
		SET status = 'failed',
		    completed_at = $1,
		    duration_ms = EXTRACT(EPOCH FROM ($1 - started_at))::bigint * 1000,
		    error = 'execution reaped: no result received before the stale threshold'
		WHERE id IN (
			SELECT id FROM executions
			WHERE status = 'running' AND started_at < $2
			LIMIT $3
		)
	`

	res, err := r.DB.ExecContext(ctx, query, now, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("fail stale running executions: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

// ResetOrphanedRunningJobs moves scheduled jobs stuck in running with no live
// execution back to failed, counting the lost attempt.
func (r *ReaperRepo) ResetOrphanedRunningJobs(ctx context.Context) (int64, error) {
	query := `
		UPDATE scheduled_jobs j
		SET status = 'failed',
		    failure_count = failure_count + 1,
		    updated_at = $1
		WHERE j.status = 'running'
		  AND NOT EXISTS (
			SELECT 1 FROM executions e
			WHERE e.job_id = j.id AND e.status = 'running'
		  )
	`

	res, err := r.DB.ExecContext(ctx, query, r.timeProvider.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("reset orphaned running jobs: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

// DeleteOldExecutions removes executions of the given status older than MaxAge,
// at most BatchSize rows per call. Execution logs go with them via ON DELETE CASCADE.
func (r *ReaperRepo) DeleteOldExecutions(ctx context.Context, p core.DeleteOldExecutionsParams) (int64, error) {
	cutoff := r.timeProvider.Now().UTC().Add(-p.MaxAge)

	query := `
		DELETE FROM executions
		WHERE id IN (
			SELECT id FROM executions
			WHERE status = $1 AND started_at < $2
			LIMIT $3
		)
	`

	res, err := r.DB.ExecContext(ctx, query, string(p.Status), cutoff, p.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("delete old executions: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}
