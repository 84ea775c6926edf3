package upsert

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/artie-labs/dimload/lib/batch"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

// Transition is how an incoming row of a versioned table relates to the active version of its key.
type Transition string

const (
	// NewKey inserts the first version of a key.
	NewKey Transition = "new_key"
	// Unchanged overwrites the active version in place, keeping its start date.
	Unchanged Transition = "unchanged"
	// Correction overwrites the active version in place because the change takes effect on the same date.
	Correction Transition = "correction"
	// NewVersion closes the active version and inserts a new one.
	NewVersion Transition = "new_version"
)

// Classify compares [incoming] to the active version [current] (nil when the key has none) over the [tracked] columns.
// It returns the transition and the start date the written row must carry.
func Classify(table schema.Table, tracked []string, incoming, current map[string]any, effectiveDate time.Time) (Transition, time.Time, error) {
	if current == nil {
		return NewKey, effectiveDate, nil
	}

	currentStart, err := typing.AsDate(current[schema.StartDateColumn])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read the start date of the active version: %w", err)
	}

	changed, err := hasChanges(table, tracked, incoming, current)
	if err != nil {
		return "", time.Time{}, err
	}

	switch {
	case !changed:
		return Unchanged, currentStart, nil
	case effectiveDate.Equal(currentStart):
		return Correction, currentStart, nil
	case effectiveDate.After(currentStart):
		return NewVersion, effectiveDate, nil
	default:
		return "", time.Time{}, backdatedError{effectiveDate: effectiveDate, currentStart: currentStart}
	}
}

type backdatedError struct {
	effectiveDate time.Time
	currentStart  time.Time
}

func (b backdatedError) Error() string {
	return fmt.Sprintf("start date %s is before the active version's start date %s", b.effectiveDate.Format(typing.DateFormat), b.currentStart.Format(typing.DateFormat))
}

func hasChanges(table schema.Table, tracked []string, incoming, current map[string]any) (bool, error) {
	for _, name := range tracked {
		col, _ := table.Column(name)
		equal, err := typing.Equal(col.Kind, incoming[name], current[name])
		if err != nil {
			return false, fmt.Errorf("failed to compare column %q: %w", name, err)
		}

		if !equal {
			return true, nil
		}
	}

	return false, nil
}

// applyVersions classifies every row against the active version of its key, closes the versions being superseded and
// stamps the bookkeeping columns of the rows to write. It returns the number of versions closed.
func (p *Plan) applyVersions(ctx context.Context, q querier, effectiveDate time.Time) (int, error) {
	if !p.Table.IsVersioned() {
		return 0, nil
	}

	active, err := p.fetchActiveVersions(ctx, q)
	if err != nil {
		return 0, err
	}

	tracked := schema.TrackedColumns(p.Columns)
	var closed int
	for i := range p.rows {
		row := &p.rows[i]
		rowEffectiveDate := effectiveDate
		if start := row.values[schema.StartDateColumn]; !typing.IsAbsent(start) {
			if rowEffectiveDate, err = typing.AsDate(start); err != nil {
				return 0, p.invalid(row.position, schema.StartDateColumn, "%v", err)
			}
		}

		key, err := p.encodeKey(row.values)
		if err != nil {
			return 0, p.invalid(row.position, "", "%v", err)
		}

		transition, startDate, err := Classify(p.Table, tracked, row.values, active[key], rowEffectiveDate)
		if err != nil {
			var backdatedErr backdatedError
			if errors.As(err, &backdatedErr) {
				return 0, p.invalid(row.position, schema.StartDateColumn, "%v", err)
			}
			return 0, err
		}

		if transition == NewVersion {
			query, args := sql.BuildCloseVersionQuery(p.dialect, p.Table.Name, p.KeyColumns, p.keyValues(row.values), startDate.Format(typing.DateFormat))
			if _, err = q.ExecContext(ctx, query, args...); err != nil {
				return 0, fmt.Errorf("failed to close the active version: %w", err)
			}
			closed++
		}

		row.values[schema.StartDateColumn] = startDate.Format(typing.DateFormat)
		row.values[schema.EndDateColumn] = nil
		row.values[schema.IsActiveColumn] = 1
	}

	return closed, nil
}

// fetchActiveVersions returns the active version of every key in the plan, by encoded key.
func (p *Plan) fetchActiveVersions(ctx context.Context, q querier) (map[string]map[string]any, error) {
	keys := make([][]any, len(p.rows))
	for i, row := range p.rows {
		keys[i] = p.keyValues(row.values)
	}

	chunks, err := batch.Chunks(keys, max(p.dialect.MaxParameters()/len(p.KeyColumns), 1))
	if err != nil {
		return nil, err
	}

	columns := append(slices.Clone(p.KeyColumns), schema.TrackedColumns(p.Columns)...)
	columns = append(columns, schema.StartDateColumn)

	active := make(map[string]map[string]any)
	for _, chunk := range chunks {
		query, args := sql.BuildSelectByKeysQuery(p.dialect, p.Table.Name, columns, p.KeyColumns, chunk, true)
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to read active versions: %w", err)
		}

		objects, err := sql.RowsToObjects(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read active versions: %w", err)
		}

		for _, object := range objects {
			key, err := p.encodeKey(object)
			if err != nil {
				return nil, err
			}
			active[key] = object
		}
	}

	return active, nil
}
