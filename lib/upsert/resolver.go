package upsert

import (
	"fmt"
	"slices"

	"github.com/artie-labs/dimload/lib/rows"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

// Resolver turns chunks of incoming rows into plans for one table, key and column set.
type Resolver struct {
	table   schema.Table
	dialect sql.Dialect
	// keyColumns follows the table's declaration order.
	keyColumns []string
	columns    []string
	lookups    []schema.Lookup
}

// NewResolver checks that [keyColumns] is the table's unique key and that [nonKeyColumns] can be written.
// Every writable non-key column is written when [nonKeyColumns] is empty. Versioned tables always write their
// bookkeeping columns.
func NewResolver(table schema.Table, dialect sql.Dialect, keyColumns, nonKeyColumns []string) (*Resolver, error) {
	if dialect == nil {
		return nil, newConfigurationError(table.Name, "dialect cannot be nil")
	}

	if len(keyColumns) == 0 {
		return nil, newConfigurationError(table.Name, "key columns cannot be empty")
	}

	if !table.HasKey(keyColumns) {
		return nil, newConfigurationError(table.Name, "key columns %v do not match the unique key %v", keyColumns, table.KeyColumns)
	}

	columns, err := resolveColumns(table, nonKeyColumns)
	if err != nil {
		return nil, err
	}

	resolver := &Resolver{
		table:      table,
		dialect:    dialect,
		keyColumns: slices.Clone(table.KeyColumns),
		columns:    columns,
	}

	for _, lookup := range table.Lookups {
		if slices.Contains(resolver.statementColumns(), lookup.Column) {
			resolver.lookups = append(resolver.lookups, lookup)
		}
	}

	return resolver, nil
}

func resolveColumns(table schema.Table, nonKeyColumns []string) ([]string, error) {
	if len(nonKeyColumns) == 0 {
		return table.NonKeyColumns(), nil
	}

	var columns []string
	for _, name := range nonKeyColumns {
		col, ok := table.Column(name)
		if !ok {
			return nil, newConfigurationError(table.Name, "column %q does not exist", name)
		}

		if col.AutoIncrement {
			return nil, newConfigurationError(table.Name, "column %q is generated by the store", name)
		}

		if table.IsKeyColumn(name) {
			return nil, newConfigurationError(table.Name, "column %q is a key column", name)
		}

		if slices.Contains(columns, name) {
			return nil, newConfigurationError(table.Name, "column %q is listed more than once", name)
		}

		columns = append(columns, name)
	}

	if table.IsVersioned() {
		for _, bookkeeping := range []string{schema.IsActiveColumn, schema.StartDateColumn, schema.EndDateColumn} {
			if !slices.Contains(columns, bookkeeping) {
				columns = append(columns, bookkeeping)
			}
		}
	}

	return columns, nil
}

func (r *Resolver) Table() schema.Table {
	return r.table
}

func (r *Resolver) KeyColumns() []string {
	return slices.Clone(r.keyColumns)
}

// Columns are the non-key columns that are written and overwritten on conflict.
func (r *Resolver) Columns() []string {
	return slices.Clone(r.columns)
}

func (r *Resolver) statementColumns() []string {
	return append(slices.Clone(r.keyColumns), r.columns...)
}

// Resolve validates [chunk] and returns its plan. [offset] is the batch position of the chunk's first row.
// Lookups, collapsing and versioning run later, inside the chunk's transaction.
func (r *Resolver) Resolve(chunkIndex, offset int, chunk []map[string]any) (*Plan, error) {
	plan := &Plan{
		Table:      r.table,
		ChunkIndex: chunkIndex,
		Offset:     offset,
		Size:       len(chunk),
		KeyColumns: r.KeyColumns(),
		Columns:    r.Columns(),
		dialect:    r.dialect,
		lookups:    r.lookups,
	}

	for i, row := range chunk {
		planned, err := r.resolveRow(offset+i, row)
		if err != nil {
			err.Table = r.table.Name
			err.ChunkIndex = chunkIndex
			return nil, *err
		}

		plan.rows = append(plan.rows, planned)
	}

	return plan, nil
}

func (r *Resolver) resolveRow(position int, row map[string]any) (plannedRow, *ValidationError) {
	invalid := func(column, format string, args ...any) *ValidationError {
		return &ValidationError{Row: position, Column: column, Reason: fmt.Sprintf(format, args...)}
	}

	row = rows.NormalizeRow(row)
	if r.table.Derive != nil {
		if err := r.table.Derive(row); err != nil {
			return plannedRow{}, invalid("", "%v", err)
		}
	}

	planned := plannedRow{
		position: position,
		values:   make(map[string]any, len(r.keyColumns)+len(r.columns)),
	}

	for _, name := range r.statementColumns() {
		// Versioning stamps these.
		if r.table.IsVersioned() && (name == schema.EndDateColumn || name == schema.IsActiveColumn) {
			planned.values[name] = nil
			continue
		}

		col, _ := r.table.Column(name)
		value := row[name]
		if err := typing.Validate(col.Kind, value); err != nil {
			return plannedRow{}, invalid(name, "%v", err)
		}

		planned.values[name] = value
	}

	for _, lookup := range r.lookups {
		if !typing.IsAbsent(planned.values[lookup.Column]) {
			continue
		}

		source := row[lookup.SourceColumn]
		if typing.IsAbsent(source) {
			if lookup.Required {
				return plannedRow{}, invalid(lookup.Column, "value is missing and %q is not set to look it up", lookup.SourceColumn)
			}
			continue
		}

		if planned.lookups == nil {
			planned.lookups = make(map[string]any)
		}
		planned.lookups[lookup.Column] = source
	}

	for _, key := range r.keyColumns {
		if _, deferred := planned.lookups[key]; deferred {
			continue
		}

		if typing.IsAbsent(planned.values[key]) {
			return plannedRow{}, invalid(key, "key value is missing")
		}
	}

	return planned, nil
}
