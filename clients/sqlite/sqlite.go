package sqlite

import (
	"context"
	gosql "database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/artie-labs/dimload/clients/sqlite/dialect"
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/db"
	"github.com/artie-labs/dimload/lib/sql"
)

const memoryPath = ":memory:"

type Store struct {
	config config.Config
	db.Store
}

func (s *Store) GetConfig() config.Config {
	return s.config
}

func (s *Store) Dialect() sql.Dialect {
	return dialect.SQLiteDialect{}
}

// Open opens the database at [path]. SQLite allows a single writer, so the pool holds one connection.
// An in-memory database only lives as long as its connection, which the single connection also keeps alive.
func Open(ctx context.Context, path string) (*gosql.DB, error) {
	sqlDB, err := gosql.Open("sqlite", config.SQLite{Path: path}.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", path, err)
	}

	sqlDB.SetMaxOpenConns(1)
	if path == memoryPath {
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to validate sqlite database %q: %w", path, err)
	}

	return sqlDB, nil
}

func LoadStore(ctx context.Context, cfg config.Config) (*Store, error) {
	if cfg.SQLite == nil {
		return nil, fmt.Errorf("sqlite config is missing")
	}

	sqlDB, err := Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}

	return &Store{
		Store:  db.New(sqlDB),
		config: cfg,
	}, nil
}
