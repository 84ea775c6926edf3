package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/artie-labs/dimload/clients/postgres/dialect"
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/db"
	"github.com/artie-labs/dimload/lib/sql"
)

type Store struct {
	config config.Config
	db.Store
}

func (s *Store) GetConfig() config.Config {
	return s.config
}

func (s *Store) Dialect() sql.Dialect {
	return dialect.PostgresDialect{}
}

func LoadStore(ctx context.Context, cfg config.Config) (*Store, error) {
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres config is missing")
	}

	store, err := db.Open(ctx, "pgx", cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}

	return &Store{
		Store:  store,
		config: cfg,
	}, nil
}
