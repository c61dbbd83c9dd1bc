package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by the data layer.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateJob indicates the (shop_id, job_type) uniqueness constraint
	// on scheduled_jobs was violated.
	ErrDuplicateJob = errors.New("a job of this type already exists for the shop")
)

// MapDBError maps database errors to the coordinator's sentinel errors.
// It handles:
//   - pgx.ErrNoRows / sql.ErrNoRows → ErrNotFound
//   - unique constraint violations → ErrDuplicateJob
//   - context timeouts/cancellations are passed through unchanged
//
// Unrecognized errors are wrapped with the originating operation name.
func MapDBError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicateJob)
	}

	return fmt.Errorf("%s: %w", op, err)
}
