package sql

import (
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/typing"
)

const (
	TargetAlias  = "tgt"
	StagingAlias = "stg"
)

// UpsertArgs describes one insert-or-update statement. Every row in [Rows] holds one value per entry of [Columns].
type UpsertArgs struct {
	Table      string
	Columns    []string
	KeyColumns []string
	// UpdateColumns are overwritten from the incoming row on conflict. When empty, conflicting rows are ignored.
	UpdateColumns []string
	// ActiveOnly restricts the conflict target to rows where [schema.IsActiveColumn] is 1.
	ActiveOnly bool
	Rows       [][]any
}

type Dialect interface {
	QuoteIdentifier(identifier string) string
	// Placeholder returns the bind parameter for the 1-based [position] within a statement.
	Placeholder(position int) string
	// MaxParameters is the number of bind parameters a single statement may carry.
	MaxParameters() int
	DataTypeForKind(kind typing.Kind, isKey bool) string
	BuildAutoIncrementColumn(column string) string
	BuildCreateTableQuery(table string, colSQLParts []string) string
	// BuildKeyIndexQueries returns the statements enforcing the table's key (among active rows when versioned).
	BuildKeyIndexQueries(table schema.Table) []string
	BuildCreateIndexQuery(table string, index schema.Index) string
	BuildUpsertQuery(args UpsertArgs) (string, []any, error)
	IsRetryableErr(err error) bool
	IsAlreadyExistsErr(err error) bool
}
