package utils

import (
	"context"
	"fmt"

	"github.com/artie-labs/dimload/clients/mssql"
	"github.com/artie-labs/dimload/clients/mysql"
	"github.com/artie-labs/dimload/clients/postgres"
	"github.com/artie-labs/dimload/clients/sqlite"
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/config/constants"
	"github.com/artie-labs/dimload/lib/destination"
)

// Load returns a [destination.Destination] for the configured output.
func Load(ctx context.Context, cfg config.Config) (destination.Destination, error) {
	switch cfg.Output {
	case constants.MSSQL:
		return mssql.LoadStore(ctx, cfg)
	case constants.MySQL:
		return mysql.LoadStore(ctx, cfg)
	case constants.Postgres:
		return postgres.LoadStore(ctx, cfg)
	case constants.SQLite:
		return sqlite.LoadStore(ctx, cfg)
	}

	return nil, fmt.Errorf("invalid destination: %q", cfg.Output)
}
