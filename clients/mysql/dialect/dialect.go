package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

const (
	maxParameters = 65_535
	// MySQL has a max key length of 3072 bytes for InnoDB with utf8mb4 (4 bytes per char = 768 chars)
	// Using 255 as a safe default for key columns
	maxVarCharLengthForKey = 255
	// Alias of the incoming row within INSERT ... ON DUPLICATE KEY UPDATE.
	insertAlias = "new"
	// Suffix of the generated columns that hold a key value only while the row is active.
	activeKeySuffix = "__active"
)

// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errTableExists     = 1050
	errDupFieldName    = 1060
	errDupKeyName      = 1061
	errLockWaitTimeout = 1205
	errLockDeadlock    = 1213
)

type MySQLDialect struct{}

func (MySQLDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf("`%s`", strings.ReplaceAll(identifier, "`", "``"))
}

func (MySQLDialect) Placeholder(_ int) string {
	return "?"
}

func (MySQLDialect) MaxParameters() int {
	return maxParameters
}

func (MySQLDialect) DataTypeForKind(kind typing.Kind, isKey bool) string {
	switch kind {
	case typing.String:
		if isKey {
			return fmt.Sprintf("VARCHAR(%d)", maxVarCharLengthForKey)
		}
		return "TEXT"
	case typing.Integer:
		return "BIGINT"
	case typing.Float:
		return "DOUBLE"
	case typing.Boolean:
		return "BOOLEAN"
	case typing.Date:
		return "DATE"
	case typing.Timestamp:
		return "DATETIME(6)"
	default:
		return string(kind)
	}
}

func (md MySQLDialect) BuildAutoIncrementColumn(column string) string {
	return fmt.Sprintf("%s BIGINT AUTO_INCREMENT PRIMARY KEY", md.QuoteIdentifier(column))
}

func (md MySQLDialect) BuildCreateTableQuery(table string, colSQLParts []string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", md.QuoteIdentifier(table), strings.Join(colSQLParts, ","))
}

// BuildKeyIndexQueries emulates a partial unique index for versioned tables. MySQL does not support filtered indexes,
// so every key column gets a stored generated column that is NULL for historical rows, and the unique index covers those.
func (md MySQLDialect) BuildKeyIndexQueries(table schema.Table) []string {
	if !table.IsVersioned() {
		return []string{md.buildUniqueIndexQuery(table.Name, table.KeyIndexName(), table.KeyColumns)}
	}

	var queries []string
	activeColumns := make([]string, len(table.KeyColumns))
	for i, keyColumn := range table.KeyColumns {
		col, _ := table.Column(keyColumn)
		activeColumns[i] = ActiveKeyColumn(keyColumn)
		queries = append(queries, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s AS (CASE WHEN %s = 1 THEN %s END) STORED",
			md.QuoteIdentifier(table.Name),
			md.QuoteIdentifier(activeColumns[i]), md.DataTypeForKind(col.Kind, true),
			md.QuoteIdentifier(schema.IsActiveColumn), md.QuoteIdentifier(keyColumn),
		))
	}

	return append(queries, md.buildUniqueIndexQuery(table.Name, table.KeyIndexName(), activeColumns))
}

func (md MySQLDialect) buildUniqueIndexQuery(table, name string, cols []string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", md.QuoteIdentifier(name), md.QuoteIdentifier(table), strings.Join(sql.QuoteColumns(cols, md), ","))
}

// BuildCreateIndexQuery omits IF NOT EXISTS, which MySQL does not support for indexes. Duplicates surface through [MySQLDialect.IsAlreadyExistsErr].
func (md MySQLDialect) BuildCreateIndexQuery(table string, index schema.Index) string {
	if index.Unique {
		return md.buildUniqueIndexQuery(table, index.Name, index.Columns)
	}

	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)", md.QuoteIdentifier(index.Name), md.QuoteIdentifier(table), strings.Join(sql.QuoteColumns(index.Columns, md), ","))
}

// BuildUpsertQuery returns an INSERT ... ON DUPLICATE KEY UPDATE statement, which requires MySQL 8.0.19+ for the row alias.
// [sql.UpsertArgs.ActiveOnly] is enforced by the generated active key columns rather than by the statement.
func (md MySQLDialect) BuildUpsertQuery(args sql.UpsertArgs) (string, []any, error) {
	if err := sql.ValidateUpsertArgs(args); err != nil {
		return "", nil, err
	}

	values, err := sql.FlattenRows(args.Rows, len(args.Columns))
	if err != nil {
		return "", nil, err
	}

	// Assigning a key column to itself leaves conflicting rows untouched.
	assignments := fmt.Sprintf("%s=%s", md.QuoteIdentifier(args.KeyColumns[0]), md.QuoteIdentifier(args.KeyColumns[0]))
	if len(args.UpdateColumns) > 0 {
		assignments = sql.BuildColumnsUpdateFragment(args.UpdateColumns, insertAlias, "", md)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s AS %s ON DUPLICATE KEY UPDATE %s",
		// INSERT INTO table (cols)
		md.QuoteIdentifier(args.Table), strings.Join(sql.QuoteColumns(args.Columns, md), ","),
		// VALUES (?,?),(?,?) AS new
		sql.BuildValuesList(md, len(args.Rows), len(args.Columns), 1), insertAlias,
		// ON DUPLICATE KEY UPDATE col=new.col
		assignments,
	), values, nil
}

func (MySQLDialect) IsRetryableErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errLockDeadlock || mysqlErr.Number == errLockWaitTimeout
	}

	return false
}

func (MySQLDialect) IsAlreadyExistsErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errTableExists, errDupFieldName, errDupKeyName:
			return true
		}
	}

	return false
}

func ActiveKeyColumn(keyColumn string) string {
	return keyColumn + activeKeySuffix
}
