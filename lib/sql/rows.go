package sql

import (
	"database/sql"
	"fmt"
)

// RowsToObjects scans every row into a map keyed by column name and closes [rows].
// Text returned as bytes, as the MySQL driver does, is converted to a string so that keys and tracked values compare
// the same way on every store.
func RowsToObjects(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	var objects []map[string]any
	for rows.Next() {
		if err = rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(objects), err)
		}

		object := make(map[string]any, len(columns))
		for i, column := range columns {
			if bytes, ok := values[i].([]byte); ok {
				object[column] = string(bytes)
			} else {
				object[column] = values[i]
			}
		}

		objects = append(objects, object)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}

	return objects, nil
}
