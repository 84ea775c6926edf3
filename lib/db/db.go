package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/artie-labs/dimload/lib/retry"
)

const (
	maxAttempts     = 3
	sleepIntervalMs = 500
	sleepMaxMs      = 3_500
)

type Store interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type storeWrapper struct {
	*sql.DB
	retryCfg retry.RetryConfig
}

// ExecContext retries statements that failed on a dropped or refused connection.
// Statements executed inside a transaction go through [sql.Tx] and are never retried here.
func (s *storeWrapper) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return retry.WithRetries(ctx, s.retryCfg, func(attempt int, _ error) (sql.Result, error) {
		if attempt > 0 {
			slog.Warn("Retrying statement", slog.Int("attempt", attempt))
		}
		return s.DB.ExecContext(ctx, query, args...)
	})
}

func New(db *sql.DB) Store {
	return &storeWrapper{
		DB: db,
		retryCfg: retry.NewRetryConfig(retry.NewRetryConfigArgs{
			JitterBaseMs:   sleepIntervalMs,
			JitterMaxMs:    sleepMaxMs,
			MaxAttempts:    maxAttempts,
			IsRetryableErr: IsRetryableError,
		}),
	}
}

func Open(ctx context.Context, driverName, dsn string) (Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to start a SQL client for driver %q: %w", driverName, err)
	}

	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate the DB connection for driver %q: %w", driverName, err)
	}

	return New(db), nil
}
