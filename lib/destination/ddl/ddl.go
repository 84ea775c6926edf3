package ddl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artie-labs/dimload/lib/destination"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
)

// BuildCreateTableStatements returns the statements creating [table] with its key and secondary indexes, in execution order.
func BuildCreateTableStatements(dialect sql.Dialect, table schema.Table) []string {
	statements := []string{dialect.BuildCreateTableQuery(table.Name, sql.BuildColumnDefinitions(dialect, table))}
	statements = append(statements, dialect.BuildKeyIndexQueries(table)...)
	for _, index := range table.Indexes {
		statements = append(statements, dialect.BuildCreateIndexQuery(table.Name, index))
	}

	return statements
}

// CreateTables creates [names] (every registered table when empty) so that referenced tables always exist first.
// Statements failing because the object already exists are skipped, so running it again is a no-op.
func CreateTables(ctx context.Context, dest destination.Destination, registry *schema.Registry, names []string) error {
	if len(names) == 0 {
		for _, table := range registry.Tables() {
			names = append(names, table.Name)
		}
	}

	levels, err := registry.Levels(names)
	if err != nil {
		return err
	}

	for _, level := range levels {
		for _, name := range level {
			table, err := registry.Get(name)
			if err != nil {
				return err
			}

			if err = createTable(ctx, dest, table); err != nil {
				return fmt.Errorf("failed to create table %q: %w", name, err)
			}
		}
	}

	return nil
}

func createTable(ctx context.Context, dest destination.Destination, table schema.Table) error {
	for _, statement := range BuildCreateTableStatements(dest.Dialect(), table) {
		slog.Debug("Executing DDL", slog.String("table", table.Name), slog.String("sql", statement))
		if _, err := dest.ExecContext(ctx, statement); err != nil {
			if dest.Dialect().IsAlreadyExistsErr(err) {
				slog.Debug("Object already exists, skipping", slog.String("table", table.Name), slog.Any("err", err))
				continue
			}

			return fmt.Errorf("failed to execute %q: %w", statement, err)
		}
	}

	slog.Info("Table is ready", slog.String("table", table.Name))
	return nil
}
