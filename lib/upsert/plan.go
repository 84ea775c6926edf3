package upsert

import (
	"context"
	gosql "database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/artie-labs/dimload/lib/batch"
	"github.com/artie-labs/dimload/lib/maputil"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

// querier is satisfied by [gosql.Tx], every read and write of a chunk goes through its transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (gosql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*gosql.Rows, error)
}

type plannedRow struct {
	// position within the whole batch
	position int
	values   map[string]any
	// lookups holds the natural key to resolve, by the column it fills.
	lookups map[string]any
}

// Plan is a validated chunk, ready to be applied inside a transaction.
type Plan struct {
	Table      schema.Table
	ChunkIndex int
	Offset     int
	// Size is the number of incoming rows, before rows sharing a key are collapsed.
	Size       int
	KeyColumns []string
	Columns    []string

	dialect sql.Dialect
	lookups []schema.Lookup
	rows    []plannedRow
}

type statement struct {
	query string
	args  []any
}

func (p *Plan) invalid(position int, column, format string, args ...any) ValidationError {
	return ValidationError{
		Table:      p.Table.Name,
		ChunkIndex: p.ChunkIndex,
		Row:        position,
		Column:     column,
		Reason:     fmt.Sprintf(format, args...),
	}
}

// clone copies the rows so that finalizing does not change [p], which keeps a plan reusable after a rollback.
func (p *Plan) clone() *Plan {
	cloned := *p
	cloned.rows = make([]plannedRow, len(p.rows))
	for i, row := range p.rows {
		cloned.rows[i] = plannedRow{position: row.position, values: maps.Clone(row.values), lookups: maps.Clone(row.lookups)}
	}
	return &cloned
}

// finalize resolves lookups, collapses rows sharing a key and applies versioning. It returns the number of versions closed.
func (p *Plan) finalize(ctx context.Context, q querier, effectiveDate time.Time) (int, error) {
	if err := p.resolveLookups(ctx, q); err != nil {
		return 0, err
	}

	if err := p.collapse(); err != nil {
		return 0, err
	}

	return p.applyVersions(ctx, q, effectiveDate)
}

// encodeKey returns a string identifying the key tuple of [values], equal for values that represent the same key.
func (p *Plan) encodeKey(values map[string]any) (string, error) {
	parts := make([]string, len(p.KeyColumns))
	for i, key := range p.KeyColumns {
		col, _ := p.Table.Column(key)
		value, err := typing.Canonical(col.Kind, values[key])
		if err != nil {
			return "", fmt.Errorf("failed to read key column %q: %w", key, err)
		}

		parts[i] = fmt.Sprintf("%q", fmt.Sprint(value))
	}

	return strings.Join(parts, ","), nil
}

func (p *Plan) keyValues(values map[string]any) []any {
	key := make([]any, len(p.KeyColumns))
	for i, col := range p.KeyColumns {
		key[i] = values[col]
	}
	return key
}

// collapse keeps one row per key: the last occurrence wins and takes the position of the first.
func (p *Plan) collapse() error {
	collapsed := maputil.NewOrderedMap[plannedRow]()
	for _, row := range p.rows {
		key, err := p.encodeKey(row.values)
		if err != nil {
			return p.invalid(row.position, "", "%v", err)
		}

		if existing, ok := collapsed.Get(key); ok {
			row.position = existing.position
		}
		collapsed.Add(key, row)
	}

	p.rows = slices.Collect(collapsed.Values())
	return nil
}

// statements builds the upsert statements, split so that none exceeds the dialect's parameter limit.
func (p *Plan) statements() ([]statement, error) {
	columns := append(slices.Clone(p.KeyColumns), p.Columns...)

	var updateColumns []string
	if p.Table.Policy != schema.AppendOnly {
		updateColumns = p.Columns
	}

	chunks, err := batch.Chunks(p.rows, sql.RowsPerStatement(p.dialect, len(columns)))
	if err != nil {
		return nil, err
	}

	var statements []statement
	for _, chunk := range chunks {
		values := make([][]any, len(chunk))
		for i, row := range chunk {
			values[i] = make([]any, len(columns))
			for j, col := range columns {
				values[i][j] = row.values[col]
			}
		}

		query, args, err := p.dialect.BuildUpsertQuery(sql.UpsertArgs{
			Table:         p.Table.Name,
			Columns:       columns,
			KeyColumns:    p.KeyColumns,
			UpdateColumns: updateColumns,
			ActiveOnly:    p.Table.IsVersioned(),
			Rows:          values,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build upsert query: %w", err)
		}

		statements = append(statements, statement{query: query, args: args})
	}

	return statements, nil
}
