package mssql

import (
	"context"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/artie-labs/dimload/clients/mssql/dialect"
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
	return dialect.MSSQLDialect{}
}

func LoadStore(ctx context.Context, cfg config.Config) (*Store, error) {
	if cfg.MSSQL == nil {
		return nil, fmt.Errorf("mssql config is missing")
	}

	store, err := db.Open(ctx, "sqlserver", cfg.MSSQL.DSN())
	if err != nil {
		return nil, err
	}

	return &Store{
		Store:  store,
		config: cfg,
	}, nil
}
