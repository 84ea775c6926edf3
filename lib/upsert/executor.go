package upsert

import (
	"context"
	gosql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/dimload/lib/db"
	"github.com/artie-labs/dimload/lib/sql"
)

type ChunkState string

const (
	Pending    ChunkState = "pending"
	Executing  ChunkState = "executing"
	Committed  ChunkState = "committed"
	RolledBack ChunkState = "rolled_back"
)

type ChunkResult struct {
	Index  int
	Offset int
	// Rows is the number of incoming rows in the chunk.
	Rows           int
	RowsAffected   int64
	VersionsClosed int
	State          ChunkState
	Duration       time.Duration
}

// Executor applies plans, one transaction per chunk. It never retries.
type Executor struct {
	store         db.Store
	dialect       sql.Dialect
	effectiveDate time.Time
}

// NewExecutor returns an executor starting new versions on [effectiveDate] unless a row carries its own start date.
func NewExecutor(store db.Store, dialect sql.Dialect, effectiveDate time.Time) *Executor {
	return &Executor{
		store:         store,
		dialect:       dialect,
		effectiveDate: time.Date(effectiveDate.Year(), effectiveDate.Month(), effectiveDate.Day(), 0, 0, 0, 0, time.UTC),
	}
}

// Execute applies [plan] atomically. On failure nothing of the chunk is kept and the error is either a [ValidationError]
// or a [StoreError].
func (e *Executor) Execute(ctx context.Context, plan *Plan) (ChunkResult, error) {
	start := time.Now()
	result := ChunkResult{
		Index:  plan.ChunkIndex,
		Offset: plan.Offset,
		Rows:   plan.Size,
		State:  Executing,
	}

	rowsAffected, versionsClosed, err := e.apply(ctx, plan)
	result.Duration = time.Since(start)
	if err != nil {
		result.State = RolledBack
		return result, e.wrapError(plan, err)
	}

	result.State = Committed
	result.RowsAffected = rowsAffected
	result.VersionsClosed = versionsClosed
	return result, nil
}

func (e *Executor) wrapError(plan *Plan, err error) error {
	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	return StoreError{
		Table:      plan.Table.Name,
		ChunkIndex: plan.ChunkIndex,
		Offset:     plan.Offset,
		Retryable:  db.IsRetryableError(err) || e.dialect.IsRetryableErr(err),
		Err:        err,
	}
}

func (e *Executor) apply(ctx context.Context, plan *Plan) (int64, int, error) {
	plan = plan.clone()
	tx, err := e.store.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start a transaction: %w", err)
	}

	var committed bool
	defer func() {
		if committed {
			return
		}

		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, gosql.ErrTxDone) {
			slog.Warn("Failed to roll back transaction", slog.String("table", plan.Table.Name), slog.Int("chunk", plan.ChunkIndex), slog.Any("err", rollbackErr))
		}
	}()

	versionsClosed, err := plan.finalize(ctx, tx, e.effectiveDate)
	if err != nil {
		return 0, 0, err
	}

	statements, err := plan.statements()
	if err != nil {
		return 0, 0, err
	}

	var rowsAffected int64
	for _, stmt := range statements {
		result, err := tx.ExecContext(ctx, stmt.query, stmt.args...)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to execute upsert statement: %w", err)
		}

		// Not every driver reports affected rows for MERGE statements.
		if affected, err := result.RowsAffected(); err == nil {
			rowsAffected += affected
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	committed = true
	return rowsAffected, versionsClosed, nil
}
