package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

// https://www.postgresql.org/docs/current/limits.html
const maxParameters = 65_535

type PostgresDialect struct{}

func (PostgresDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

func (PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (PostgresDialect) MaxParameters() int {
	return maxParameters
}

func (PostgresDialect) DataTypeForKind(kind typing.Kind, _ bool) string {
	switch kind {
	case typing.String:
		return "text"
	case typing.Integer:
		return "bigint"
	case typing.Float:
		return "double precision"
	case typing.Boolean:
		return "boolean"
	case typing.Date:
		return "date"
	case typing.Timestamp:
		return "timestamp without time zone"
	default:
		return string(kind)
	}
}

func (pd PostgresDialect) BuildAutoIncrementColumn(column string) string {
	return fmt.Sprintf("%s BIGSERIAL PRIMARY KEY", pd.QuoteIdentifier(column))
}

func (pd PostgresDialect) BuildCreateTableQuery(table string, colSQLParts []string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pd.QuoteIdentifier(table), strings.Join(colSQLParts, ","))
}

func (pd PostgresDialect) BuildKeyIndexQueries(table schema.Table) []string {
	return []string{sql.BuildPartialKeyIndexQuery(pd, table, true)}
}

func (pd PostgresDialect) BuildCreateIndexQuery(table string, index schema.Index) string {
	return sql.BuildDefaultCreateIndexQuery(pd, table, index)
}

// BuildUpsertQuery returns an INSERT ... ON CONFLICT statement. For versioned tables the conflict target
// names the partial unique index predicate so that only the active row of a key can conflict.
func (pd PostgresDialect) BuildUpsertQuery(args sql.UpsertArgs) (string, []any, error) {
	if err := sql.ValidateUpsertArgs(args); err != nil {
		return "", nil, err
	}

	values, err := sql.FlattenRows(args.Rows, len(args.Columns))
	if err != nil {
		return "", nil, err
	}

	conflictTarget := fmt.Sprintf("(%s)", strings.Join(sql.QuoteColumns(args.KeyColumns, pd), ","))
	if args.ActiveOnly {
		conflictTarget += fmt.Sprintf(" WHERE %s = 1", pd.QuoteIdentifier(schema.IsActiveColumn))
	}

	action := "DO NOTHING"
	if len(args.UpdateColumns) > 0 {
		action = "DO UPDATE SET " + sql.BuildColumnsUpdateFragment(args.UpdateColumns, "EXCLUDED", "", pd)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT %s %s",
		// INSERT INTO table (cols)
		pd.QuoteIdentifier(args.Table), strings.Join(sql.QuoteColumns(args.Columns, pd), ","),
		// VALUES ($1,$2),($3,$4)
		sql.BuildValuesList(pd, len(args.Rows), len(args.Columns), 1),
		// ON CONFLICT (keys) [WHERE is_active = 1] DO ...
		conflictTarget, action,
	), values, nil
}

func (PostgresDialect) IsRetryableErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// https://www.postgresql.org/docs/current/errcodes-appendix.html
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	return false
}

func (PostgresDialect) IsAlreadyExistsErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42P07 duplicate_table, also raised for relations such as indexes.
		return pgErr.Code == "42P07"
	}

	return false
}
