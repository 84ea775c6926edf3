package sql

import (
	"fmt"
	"strings"
)

func QuoteColumns(cols []string, dialect Dialect) []string {
	result := make([]string, len(cols))
	for i, col := range cols {
		result[i] = dialect.QuoteIdentifier(col)
	}
	return result
}

func QuoteTableAliasColumn(tableAlias string, column string, dialect Dialect) string {
	return fmt.Sprintf("%s.%s", tableAlias, dialect.QuoteIdentifier(column))
}

func QuoteTableAliasColumns(tableAlias string, cols []string, dialect Dialect) []string {
	result := make([]string, len(cols))
	for i, col := range cols {
		result[i] = QuoteTableAliasColumn(tableAlias, col, dialect)
	}
	return result
}

// BuildColumnsUpdateFragment returns a list of assignments like: "first_name"=stg."first_name","last_name"=stg."last_name"
// When [targetAlias] is set, the assigned column is prefixed with it as well.
func BuildColumnsUpdateFragment(cols []string, stagingAlias, targetAlias string, dialect Dialect) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		target := dialect.QuoteIdentifier(col)
		if targetAlias != "" {
			target = QuoteTableAliasColumn(targetAlias, col, dialect)
		}
		parts[i] = fmt.Sprintf("%s=%s", target, QuoteTableAliasColumn(stagingAlias, col, dialect))
	}

	return strings.Join(parts, ",")
}

// BuildColumnComparisons returns equality checks between [leftAlias] and [rightAlias] for every column.
func BuildColumnComparisons(cols []string, leftAlias, rightAlias string, dialect Dialect) []string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s = %s", QuoteTableAliasColumn(leftAlias, col, dialect), QuoteTableAliasColumn(rightAlias, col, dialect))
	}
	return parts
}
