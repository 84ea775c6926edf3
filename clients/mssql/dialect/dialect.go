package dialect

import (
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

const (
	// SQL Server accepts at most 2100 parameters per request, a few are kept in reserve for the driver.
	maxParameters = 2_000
	// Index keys cannot exceed 900 bytes.
	// https://learn.microsoft.com/en-us/sql/relational-databases/tables/primary-and-foreign-key-constraints?view=sql-server-ver16#PKeys
	maxVarCharLengthForKey = 900
)

// https://learn.microsoft.com/en-us/sql/relational-databases/errors-events/database-engine-events-and-errors
const (
	errDeadlockVictim  = 1205
	errIndexExists     = 1913
	errObjectExists    = 2714
	errLockWaitTimeout = 1222
)

type MSSQLDialect struct{}

func (MSSQLDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

func (MSSQLDialect) Placeholder(position int) string {
	return fmt.Sprintf("@p%d", position)
}

func (MSSQLDialect) MaxParameters() int {
	return maxParameters
}

func (MSSQLDialect) DataTypeForKind(kind typing.Kind, isKey bool) string {
	switch kind {
	case typing.String:
		if isKey {
			return fmt.Sprintf("VARCHAR(%d)", maxVarCharLengthForKey)
		}
		return "VARCHAR(MAX)"
	case typing.Integer:
		return "bigint"
	case typing.Float:
		return "float"
	case typing.Boolean:
		return "BIT"
	case typing.Date:
		return "DATE"
	case typing.Timestamp:
		// Using datetime2 because it's the recommendation, and it provides more precision: https://stackoverflow.com/a/1884088
		return "datetime2"
	default:
		return string(kind)
	}
}

func (md MSSQLDialect) BuildAutoIncrementColumn(column string) string {
	return fmt.Sprintf("%s BIGINT IDENTITY(1,1) PRIMARY KEY", md.QuoteIdentifier(column))
}

func (md MSSQLDialect) BuildCreateTableQuery(table string, colSQLParts []string) string {
	// Microsoft SQL Server doesn't support IF NOT EXISTS
	return fmt.Sprintf("CREATE TABLE %s (%s);", md.QuoteIdentifier(table), strings.Join(colSQLParts, ","))
}

// BuildKeyIndexQueries returns a filtered unique index for versioned tables.
func (md MSSQLDialect) BuildKeyIndexQueries(table schema.Table) []string {
	return []string{sql.BuildPartialKeyIndexQuery(md, table, false)}
}

func (md MSSQLDialect) BuildCreateIndexQuery(table string, index schema.Index) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}

	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, md.QuoteIdentifier(index.Name), md.QuoteIdentifier(table), strings.Join(sql.QuoteColumns(index.Columns, md), ","))
}

// BuildUpsertQuery returns a MERGE statement over a VALUES source. HOLDLOCK keeps concurrent merges on the same key serialized.
func (md MSSQLDialect) BuildUpsertQuery(args sql.UpsertArgs) (string, []any, error) {
	if err := sql.ValidateUpsertArgs(args); err != nil {
		return "", nil, err
	}

	values, err := sql.FlattenRows(args.Rows, len(args.Columns))
	if err != nil {
		return "", nil, err
	}

	joinOn := sql.BuildColumnComparisons(args.KeyColumns, sql.TargetAlias, sql.StagingAlias, md)
	if args.ActiveOnly {
		joinOn = append(joinOn, fmt.Sprintf("%s = 1", sql.QuoteTableAliasColumn(sql.TargetAlias, schema.IsActiveColumn, md)))
	}

	var whenMatched string
	if len(args.UpdateColumns) > 0 {
		whenMatched = "WHEN MATCHED THEN UPDATE SET " + sql.BuildColumnsUpdateFragment(args.UpdateColumns, sql.StagingAlias, sql.TargetAlias, md) + " "
	}

	return fmt.Sprintf(`MERGE INTO %s WITH (HOLDLOCK) AS %s USING (VALUES %s) AS %s (%s) ON %s %sWHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);`,
		// MERGE INTO table WITH (HOLDLOCK) AS tgt
		md.QuoteIdentifier(args.Table), sql.TargetAlias,
		// USING (VALUES (@p1,@p2)) AS stg (cols)
		sql.BuildValuesList(md, len(args.Rows), len(args.Columns), 1), sql.StagingAlias, strings.Join(sql.QuoteColumns(args.Columns, md), ","),
		// ON tgt.key = stg.key [AND tgt.is_active = 1]
		strings.Join(joinOn, " AND "),
		// WHEN MATCHED THEN UPDATE SET ...
		whenMatched,
		// WHEN NOT MATCHED THEN INSERT (cols) VALUES (stg.cols)
		strings.Join(sql.QuoteColumns(args.Columns, md), ","), strings.Join(sql.QuoteTableAliasColumns(sql.StagingAlias, args.Columns, md), ","),
	), values, nil
}

func (MSSQLDialect) IsRetryableErr(err error) bool {
	var mssqlErr mssql.Error
	if errors.As(err, &mssqlErr) {
		return mssqlErr.Number == errDeadlockVictim || mssqlErr.Number == errLockWaitTimeout
	}

	return false
}

func (MSSQLDialect) IsAlreadyExistsErr(err error) bool {
	var mssqlErr mssql.Error
	if errors.As(err, &mssqlErr) {
		return mssqlErr.Number == errObjectExists || mssqlErr.Number == errIndexExists
	}

	// There is already an object named 'dim_date' in the database.
	return err != nil && strings.Contains(err.Error(), "There is already an object named")
}
