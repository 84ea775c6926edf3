package mysql

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/artie-labs/dimload/clients/mysql/dialect"
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
	return dialect.MySQLDialect{}
}

func LoadStore(ctx context.Context, cfg config.Config) (*Store, error) {
	if cfg.MySQL == nil {
		return nil, fmt.Errorf("mysql config is missing")
	}

	store, err := db.Open(ctx, "mysql", cfg.MySQL.DSN())
	if err != nil {
		return nil, err
	}

	return &Store{
		Store:  store,
		config: cfg,
	}, nil
}
