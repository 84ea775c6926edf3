package rows

import (
	"github.com/artie-labs/dimload/lib/typing"
)

// Normalize returns a copy of [batch] where every absent value (see [typing.IsAbsent]) is replaced with nil.
// Row order, keys and present values are preserved and the input is never mutated.
func Normalize(batch []map[string]any) []map[string]any {
	out := make([]map[string]any, len(batch))
	for i, row := range batch {
		out[i] = NormalizeRow(row)
	}

	return out
}

func NormalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		if typing.IsAbsent(value) {
			out[key] = nil
		} else {
			out[key] = value
		}
	}

	return out
}
