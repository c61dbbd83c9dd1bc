package errors

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError("find job", nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded},
		{name: "canceled", err: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError("find job", tt.err)
			if !errors.Is(err, tt.err) {
				t.Errorf("MapDBError() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "pgx no rows", err: pgx.ErrNoRows},
		{name: "sql no rows", err: sql.ErrNoRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError("find job", tt.err)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("MapDBError(%v) should be ErrNotFound, got %v", tt.err, err)
			}
			if !strings.Contains(err.Error(), "find job") {
				t.Errorf("MapDBError() should carry the operation name, got %v", err)
			}
		})
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "scheduled_jobs_shop_id_job_type_key",
	}

	err := MapDBError("create job", pgErr)
	if !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("MapDBError(unique violation) should be ErrDuplicateJob, got %v", err)
	}
}

func TestMapDBError_OtherPgErrorWrapped(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.NotNullViolation}

	err := MapDBError("create job", pgErr)
	if errors.Is(err, ErrDuplicateJob) || errors.Is(err, ErrNotFound) {
		t.Errorf("unexpected sentinel match for %v", err)
	}

	var unwrapped *pgconn.PgError
	if !errors.As(err, &unwrapped) {
		t.Errorf("MapDBError() should keep the pg error in the chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "create job") {
		t.Errorf("MapDBError() should carry the operation name, got %v", err)
	}
}
