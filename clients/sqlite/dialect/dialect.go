package dialect

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

// https://www.sqlite.org/limits.html#max_variable_number
const maxParameters = 32_766

type SQLiteDialect struct{}

func (SQLiteDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

func (SQLiteDialect) Placeholder(_ int) string {
	return "?"
}

func (SQLiteDialect) MaxParameters() int {
	return maxParameters
}

func (SQLiteDialect) DataTypeForKind(kind typing.Kind, _ bool) string {
	switch kind {
	case typing.String:
		return "TEXT"
	case typing.Integer, typing.Boolean:
		return "INTEGER"
	case typing.Float:
		return "REAL"
	case typing.Date:
		return "DATE"
	case typing.Timestamp:
		return "TIMESTAMP"
	default:
		return string(kind)
	}
}

func (sd SQLiteDialect) BuildAutoIncrementColumn(column string) string {
	return fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", sd.QuoteIdentifier(column))
}

func (sd SQLiteDialect) BuildCreateTableQuery(table string, colSQLParts []string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sd.QuoteIdentifier(table), strings.Join(colSQLParts, ","))
}

func (sd SQLiteDialect) BuildKeyIndexQueries(table schema.Table) []string {
	return []string{sql.BuildPartialKeyIndexQuery(sd, table, true)}
}

func (sd SQLiteDialect) BuildCreateIndexQuery(table string, index schema.Index) string {
	return sql.BuildDefaultCreateIndexQuery(sd, table, index)
}

// BuildUpsertQuery returns an INSERT ... ON CONFLICT statement, the conflict target of versioned tables carries the
// partial index predicate.
func (sd SQLiteDialect) BuildUpsertQuery(args sql.UpsertArgs) (string, []any, error) {
	if err := sql.ValidateUpsertArgs(args); err != nil {
		return "", nil, err
	}

	values, err := sql.FlattenRows(args.Rows, len(args.Columns))
	if err != nil {
		return "", nil, err
	}

	conflictTarget := fmt.Sprintf("(%s)", strings.Join(sql.QuoteColumns(args.KeyColumns, sd), ","))
	if args.ActiveOnly {
		conflictTarget += fmt.Sprintf(" WHERE %s = 1", sd.QuoteIdentifier(schema.IsActiveColumn))
	}

	action := "DO NOTHING"
	if len(args.UpdateColumns) > 0 {
		action = "DO UPDATE SET " + sql.BuildColumnsUpdateFragment(args.UpdateColumns, "excluded", "", sd)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT %s %s",
		sd.QuoteIdentifier(args.Table), strings.Join(sql.QuoteColumns(args.Columns, sd), ","),
		sql.BuildValuesList(sd, len(args.Rows), len(args.Columns), 1),
		conflictTarget, action,
	), values, nil
}

func (SQLiteDialect) IsRetryableErr(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// Extended result codes carry the primary code in the lowest byte.
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}

	return false
}

func (SQLiteDialect) IsAlreadyExistsErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
