// Package data provides PostgreSQL and Redis repositories for the fortune-flow coordinator.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stevenleohash/fortune-flow-end/internal/domain/model"
	apperrors "github.com/stevenleohash/fortune-flow-end/internal/errors"
)

const scheduledJobColumns = `
  id,
  shop_id,
  job_type,
  cron_expression,
  enabled,
  status,
  config,
  next_run_at,
  last_run_at,
  run_count,
  success_count,
  failure_count,
  created_at,
  updated_at
`

// JobStoreRepo provides database operations for scheduled jobs, executions,
// and execution logs. It implements core.JobStore.
type JobStoreRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobStoreRepo creates a new JobStoreRepo instance with the given database connection.
func NewJobStoreRepo(db *sql.DB) *JobStoreRepo {
	return &JobStoreRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// NewJobStoreRepoWithTimeProvider creates a JobStoreRepo with a custom TimeProvider (useful for testing).
func NewJobStoreRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *JobStoreRepo {
	return &JobStoreRepo{
		DB:           db,
		timeProvider: timeProvider,
	}
}

// ListEnabledJobs returns every enabled scheduled job ordered by creation time.
func (r *JobStoreRepo) ListEnabledJobs(ctx context.Context) ([]model.ScheduledJob, error) {
	query := `
		SELECT ` + scheduledJobColumns + `
		FROM scheduled_jobs
		WHERE enabled = true
		ORDER BY created_at ASC
	`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enabled jobs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var jobs []model.ScheduledJob
	for rows.Next() {
		job, scanErr := scanScheduledJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan scheduled job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate scheduled jobs: %w", rowsErr)
	}

	return jobs, nil
}

// FindJob returns the job with the given id, or errors.ErrNotFound.
func (r *JobStoreRepo) FindJob(ctx context.Context, id string) (*model.ScheduledJob, error) {
	query := `
		SELECT ` + scheduledJobColumns + `
		FROM scheduled_jobs
		WHERE id = $1
	`

	row := r.DB.QueryRowContext(ctx, query, id)
	job, err := scanScheduledJob(row)
	if err != nil {
		return nil, apperrors.MapDBError("find job", err)
	}
	return &job, nil
}

// UpdateJob applies the non-nil fields of upd and returns the updated row.
// Counter deltas are applied additively so concurrent reconciliations never
// lose increments.
func (r *JobStoreRepo) UpdateJob(ctx context.Context, id string, upd model.JobUpdate) (*model.ScheduledJob, error) {
	clauses := []string{"updated_at = $2"}
	args := []any{id, r.timeProvider.Now().UTC()}

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if upd.Status != nil {
		clauses = append(clauses, "status = "+next(string(*upd.Status)))
	}
	if upd.NextRunAt != nil {
		clauses = append(clauses, "next_run_at = "+next(upd.NextRunAt.UTC()))
	}
	if upd.LastRunAt != nil {
		clauses = append(clauses, "last_run_at = "+next(upd.LastRunAt.UTC()))
	}
	if upd.RunCountDelta != 0 {
		clauses = append(clauses, "run_count = run_count + "+next(upd.RunCountDelta))
	}
	if upd.SuccessCountDelta != 0 {
		clauses = append(clauses, "success_count = success_count + "+next(upd.SuccessCountDelta))
	}
	if upd.FailureCountDelta != 0 {
		clauses = append(clauses, "failure_count = failure_count + "+next(upd.FailureCountDelta))
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE scheduled_jobs SET ")
	queryBuilder.WriteString(strings.Join(clauses, ", "))
	queryBuilder.WriteString(" WHERE id = $1 RETURNING ")
	queryBuilder.WriteString(scheduledJobColumns)

	row := r.DB.QueryRowContext(ctx, queryBuilder.String(), args...)
	job, err := scanScheduledJob(row)
	if err != nil {
		return nil, apperrors.MapDBError("update job", err)
	}
	return &job, nil
}

// CreateExecution persists a new execution record.
func (r *JobStoreRepo) CreateExecution(ctx context.Context, exec *model.Execution) error {
	query := `
		INSERT INTO executions (id, job_id, shop_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.DB.QueryRowContext(ctx, query,
		exec.ID, exec.JobID, exec.ShopID, string(exec.Status), exec.StartedAt.UTC(),
	).Scan(&exec.CreatedAt)
	if err != nil {
		return apperrors.MapDBError("create execution", err)
	}
	return nil
}

// UpdateExecution applies the non-nil fields of upd to the execution.
func (r *JobStoreRepo) UpdateExecution(ctx context.Context, id string, upd model.ExecutionUpdate) error {
	clauses := make([]string, 0, 5)
	args := []any{id}

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if upd.Status != nil {
		clauses = append(clauses, "status = "+next(string(*upd.Status)))
	}
	if upd.CompletedAt != nil {
		clauses = append(clauses, "completed_at = "+next(upd.CompletedAt.UTC()))
	}
	if upd.DurationMs != nil {
		clauses = append(clauses, "duration_ms = "+next(*upd.DurationMs))
	}
	if upd.Result != nil {
		clauses = append(clauses, "result = "+next([]byte(upd.Result)))
	}
	if upd.Error != nil {
		clauses = append(clauses, "error = "+next(*upd.Error))
	}

	if len(clauses) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE executions SET ")
	queryBuilder.WriteString(strings.Join(clauses, ", "))
	queryBuilder.WriteString(" WHERE id = $1")

	res, err := r.DB.ExecContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return apperrors.MapDBError("update execution", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("update execution: %w", apperrors.ErrNotFound)
	}
	return nil
}

// AppendExecutionLog appends one entry to an execution's ordered log.
func (r *JobStoreRepo) AppendExecutionLog(ctx context.Context, executionID string, entry model.ExecutionLogEntry) error {
	query := `
		INSERT INTO execution_logs (execution_id, ts, level, message, details)
		VALUES ($1, $2, $3, $4, $5)
	`

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = r.timeProvider.Now()
	}

	var details any
	if len(entry.Details) > 0 {
		details = []byte(entry.Details)
	}

	if _, err := r.DB.ExecContext(ctx, query,
		executionID, ts.UTC(), string(entry.Level), entry.Message, details,
	); err != nil {
		return apperrors.MapDBError("append execution log", err)
	}
	return nil
}

// FindRunningConflict reports whether any running execution exists for the same
// (shopID, jobType) pair, excluding executions belonging to excludeJobID. An
// empty excludeJobID excludes nothing. Advisory only: two triggers landing
// inside the same read-then-decide window can both pass this check.
func (r *JobStoreRepo) FindRunningConflict(
	ctx context.Context,
	shopID string,
	jobType model.JobType,
	excludeJobID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM executions e
			JOIN scheduled_jobs j ON j.id = e.job_id
			WHERE e.shop_id = $1
			  AND j.job_type = $2
			  AND e.status = 'running'
			  AND ($3 = '' OR e.job_id::text <> $3)
		)
	`

	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, shopID, string(jobType), excludeJobID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query running conflict: %w", err)
	}
	return exists, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledJob(row rowScanner) (model.ScheduledJob, error) {
	var (
		job        model.ScheduledJob
		jobType    string
		status     string
		configRaw  []byte
		nextRunAt  sql.NullTime
		lastRunAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.ShopID,
		&jobType,
		&job.CronExpression,
		&job.Enabled,
		&status,
		&configRaw,
		&nextRunAt,
		&lastRunAt,
		&job.RunCount,
		&job.SuccessCount,
		&job.FailureCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return model.ScheduledJob{}, err
	}

	job.Type = model.JobType(jobType)
	job.Status = model.JobStatus(status)
	if nextRunAt.Valid {
		t := nextRunAt.Time
		job.NextRunAt = &t
	}
	if lastRunAt.Valid {
		t := lastRunAt.Time
		job.LastRunAt = &t
	}
	if len(configRaw) > 0 {
		if unmarshalErr := json.Unmarshal(configRaw, &job.Config); unmarshalErr != nil {
			return model.ScheduledJob{}, fmt.Errorf("decode job config: %w", unmarshalErr)
		}
	}

	return job, nil
}
