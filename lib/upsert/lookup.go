package upsert

import (
	"context"
	"fmt"

	"github.com/artie-labs/dimload/lib/batch"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

// lookupKey identifies a natural key value, whether it came from an incoming row or was scanned from the store.
func lookupKey(value any) string {
	if bytes, ok := value.([]byte); ok {
		return string(bytes)
	}

	return fmt.Sprint(value)
}

// resolveLookups fills surrogate key columns from the referenced tables. Rows that already carry the surrogate are left alone.
func (p *Plan) resolveLookups(ctx context.Context, q querier) error {
	for _, lookup := range p.lookups {
		var naturalKeys []any
		seen := make(map[string]bool)
		for _, row := range p.rows {
			if source, ok := row.lookups[lookup.Column]; ok && !seen[lookupKey(source)] {
				seen[lookupKey(source)] = true
				naturalKeys = append(naturalKeys, source)
			}
		}

		if len(naturalKeys) == 0 {
			continue
		}

		surrogates, err := fetchSurrogates(ctx, q, p.dialect, lookup, naturalKeys)
		if err != nil {
			return err
		}

		for i := range p.rows {
			row := &p.rows[i]
			source, ok := row.lookups[lookup.Column]
			if !ok {
				continue
			}

			surrogate, found := surrogates[lookupKey(source)]
			if !found {
				if lookup.Required {
					return p.invalid(row.position, lookup.Column, "no %s row has %s %v", lookup.Table, lookup.NaturalKey, source)
				}
				// Optional references stay NULL.
				continue
			}

			row.values[lookup.Column] = surrogate
		}
	}

	for _, row := range p.rows {
		for _, key := range p.KeyColumns {
			if typing.IsAbsent(row.values[key]) {
				return p.invalid(row.position, key, "key value is missing")
			}
		}
	}

	return nil
}

// fetchSurrogates maps every natural key found in the lookup table to its surrogate key.
func fetchSurrogates(ctx context.Context, q querier, dialect sql.Dialect, lookup schema.Lookup, naturalKeys []any) (map[string]any, error) {
	keys := make([][]any, len(naturalKeys))
	for i, naturalKey := range naturalKeys {
		keys[i] = []any{naturalKey}
	}

	chunks, err := batch.Chunks(keys, dialect.MaxParameters())
	if err != nil {
		return nil, err
	}

	surrogates := make(map[string]any)
	for _, chunk := range chunks {
		query, args := sql.BuildSelectByKeysQuery(dialect, lookup.Table, []string{lookup.NaturalKey, lookup.SurrogateKey}, []string{lookup.NaturalKey}, chunk, lookup.ActiveOnly)
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s.%s: %w", lookup.Table, lookup.SurrogateKey, err)
		}

		objects, err := sql.RowsToObjects(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s.%s: %w", lookup.Table, lookup.SurrogateKey, err)
		}

		for _, object := range objects {
			surrogates[lookupKey(object[lookup.NaturalKey])] = object[lookup.SurrogateKey]
		}
	}

	return surrogates, nil
}
