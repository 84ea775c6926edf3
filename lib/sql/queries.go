package sql

import (
	"fmt"
	"strings"

	"github.com/artie-labs/dimload/lib/schema"
)

// BuildSelectByKeysQuery selects [cols] for every row matching one of the [keys] tuples.
// [keys] holds one value per entry of [keyCols]. When [activeOnly] is set, only active rows are returned.
func BuildSelectByKeysQuery(dialect Dialect, table string, cols, keyCols []string, keys [][]any, activeOnly bool) (string, []any) {
	var args []any
	var predicate string
	if len(keyCols) == 1 {
		placeholders := make([]string, len(keys))
		for i, key := range keys {
			args = append(args, key[0])
			placeholders[i] = dialect.Placeholder(len(args))
		}
		predicate = fmt.Sprintf("%s IN (%s)", dialect.QuoteIdentifier(keyCols[0]), strings.Join(placeholders, ","))
	} else {
		tuples := make([]string, len(keys))
		for i, key := range keys {
			parts := make([]string, len(keyCols))
			for j, keyCol := range keyCols {
				args = append(args, key[j])
				parts[j] = fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(keyCol), dialect.Placeholder(len(args)))
			}
			tuples[i] = "(" + strings.Join(parts, " AND ") + ")"
		}
		predicate = "(" + strings.Join(tuples, " OR ") + ")"
	}

	if activeOnly {
		predicate = fmt.Sprintf("%s = 1 AND %s", dialect.QuoteIdentifier(schema.IsActiveColumn), predicate)
	}

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(QuoteColumns(cols, dialect), ","), dialect.QuoteIdentifier(table), predicate), args
}

// BuildCloseVersionQuery ends the active version of one natural key.
func BuildCloseVersionQuery(dialect Dialect, table string, keyCols []string, key []any, endDate any) (string, []any) {
	args := []any{endDate}
	parts := make([]string, len(keyCols))
	for i, keyCol := range keyCols {
		args = append(args, key[i])
		parts[i] = fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(keyCol), dialect.Placeholder(len(args)))
	}

	return fmt.Sprintf("UPDATE %s SET %s = %s, %s = 0 WHERE %s AND %s = 1",
		dialect.QuoteIdentifier(table),
		// SET end_date = ?, is_active = 0
		dialect.QuoteIdentifier(schema.EndDateColumn), dialect.Placeholder(1), dialect.QuoteIdentifier(schema.IsActiveColumn),
		// WHERE key = ? AND is_active = 1
		strings.Join(parts, " AND "), dialect.QuoteIdentifier(schema.IsActiveColumn),
	), args
}

// BuildForeignKeyClause returns a table level FOREIGN KEY constraint, which every supported dialect spells the same way.
// MySQL ignores inline REFERENCES on column definitions, so constraints are always declared at the table level.
func BuildForeignKeyClause(dialect Dialect, column string, reference schema.Reference) string {
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)", dialect.QuoteIdentifier(column), dialect.QuoteIdentifier(reference.Table), dialect.QuoteIdentifier(reference.Column))
}

// BuildColumnDefinitions returns the column definitions and foreign key constraints of a CREATE TABLE statement for [table].
func BuildColumnDefinitions(dialect Dialect, table schema.Table) []string {
	parts := make([]string, 0, len(table.Columns))
	var constraints []string
	for _, col := range table.Columns {
		if col.AutoIncrement {
			parts = append(parts, dialect.BuildAutoIncrementColumn(col.Name))
			continue
		}

		part := fmt.Sprintf("%s %s", dialect.QuoteIdentifier(col.Name), dialect.DataTypeForKind(col.Kind, table.IsKeyColumn(col.Name)))
		if !col.Nullable {
			part += " NOT NULL"
		}
		parts = append(parts, part)

		if col.References != nil {
			constraints = append(constraints, BuildForeignKeyClause(dialect, col.Name, *col.References))
		}
	}

	return append(parts, constraints...)
}

// BuildDefaultCreateIndexQuery is shared by dialects that support CREATE INDEX IF NOT EXISTS.
func BuildDefaultCreateIndexQuery(dialect Dialect, table string, index schema.Index) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}

	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, dialect.QuoteIdentifier(index.Name), dialect.QuoteIdentifier(table), strings.Join(QuoteColumns(index.Columns, dialect), ","),
	)
}

// BuildPartialKeyIndexQuery returns the unique index over the natural key restricted to active rows for versioned tables,
// or a plain unique index otherwise. [ifNotExists] is omitted for dialects that do not support it.
func BuildPartialKeyIndexQuery(dialect Dialect, table schema.Table, ifNotExists bool) string {
	var existsClause string
	if ifNotExists {
		existsClause = "IF NOT EXISTS "
	}

	query := fmt.Sprintf("CREATE UNIQUE INDEX %s%s ON %s (%s)",
		existsClause, dialect.QuoteIdentifier(table.KeyIndexName()), dialect.QuoteIdentifier(table.Name), strings.Join(QuoteColumns(table.KeyColumns, dialect), ","),
	)

	if table.IsVersioned() {
		query += fmt.Sprintf(" WHERE %s = 1", dialect.QuoteIdentifier(schema.IsActiveColumn))
	}

	return query
}
