package sql

import (
	"fmt"
	"strings"
)

// BuildValuesList returns "(p1,p2),(p3,p4)" for [rowCount] rows of [columnCount] values, numbering placeholders from [start].
func BuildValuesList(dialect Dialect, rowCount, columnCount, start int) string {
	rows := make([]string, rowCount)
	position := start
	for i := range rowCount {
		placeholders := make([]string, columnCount)
		for j := range columnCount {
			placeholders[j] = dialect.Placeholder(position)
			position++
		}
		rows[i] = "(" + strings.Join(placeholders, ",") + ")"
	}

	return strings.Join(rows, ",")
}

// FlattenRows validates that every row has [columnCount] values and concatenates them into one argument list.
func FlattenRows(rows [][]any, columnCount int) ([]any, error) {
	args := make([]any, 0, len(rows)*columnCount)
	for i, row := range rows {
		if len(row) != columnCount {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), columnCount)
		}
		args = append(args, row...)
	}

	return args, nil
}

// RowsPerStatement returns how many rows of [columnCount] values fit within the dialect's parameter limit.
func RowsPerStatement(dialect Dialect, columnCount int) int {
	if columnCount <= 0 {
		return 0
	}

	return max(dialect.MaxParameters()/columnCount, 1)
}

func ValidateUpsertArgs(args UpsertArgs) error {
	if args.Table == "" {
		return fmt.Errorf("table cannot be empty")
	}

	if len(args.Columns) == 0 {
		return fmt.Errorf("columns cannot be empty")
	}

	if len(args.KeyColumns) == 0 {
		return fmt.Errorf("key columns cannot be empty")
	}

	if len(args.Rows) == 0 {
		return fmt.Errorf("rows cannot be empty")
	}

	return nil
}
