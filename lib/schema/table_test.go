package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/dimload/lib/typing"
)

func versionedTable() Table {
	return Table{
		Name: "dim_team",
		Columns: []Column{
			{Name: "team_key", Kind: typing.Integer, AutoIncrement: true},
			{Name: "team_id", Kind: typing.String},
			{Name: "team_name", Kind: typing.String},
			{Name: "office_key", Kind: typing.Integer, Nullable: true, References: &Reference{Table: "dim_office", Column: "office_key"}},
			{Name: IsActiveColumn, Kind: typing.Integer},
			{Name: StartDateColumn, Kind: typing.Date},
			{Name: EndDateColumn, Kind: typing.Date, Nullable: true},
		},
		KeyColumns: []string{"team_id"},
		Versioning: SCD2,
		Policy:     Overwrite,
		Lookups: []Lookup{
			{Column: "office_key", SourceColumn: "office_id", Table: "dim_office", NaturalKey: "office_id", SurrogateKey: "office_key"},
		},
	}
}

func TestTable_Columns(t *testing.T) {
	table := versionedTable()
	assert.Equal(t, []string{"team_id", "team_name", "office_key", IsActiveColumn, StartDateColumn, EndDateColumn}, table.WritableColumns())
	assert.Equal(t, []string{"team_name", "office_key", IsActiveColumn, StartDateColumn, EndDateColumn}, table.NonKeyColumns())
	assert.Equal(t, []string{"team_name", "office_key"}, TrackedColumns(table.NonKeyColumns()))
	assert.Equal(t, []string{"dim_office"}, table.DependsOn())
	assert.Equal(t, "uq_dim_team_active", table.KeyIndexName())

	col, ok := table.Column("team_name")
	assert.True(t, ok)
	assert.Equal(t, typing.String, col.Kind)

	_, ok = table.Column("office_id")
	assert.False(t, ok)

	lookup, ok := table.LookupFor("office_key")
	assert.True(t, ok)
	assert.Equal(t, "office_id", lookup.SourceColumn)
}

func TestTable_HasKey(t *testing.T) {
	table := Table{Name: "fact", KeyColumns: []string{"a", "b"}}
	assert.True(t, table.HasKey([]string{"a", "b"}))
	assert.True(t, table.HasKey([]string{"b", "a"}))
	assert.False(t, table.HasKey([]string{"a"}))
	assert.False(t, table.HasKey([]string{"a", "a"}))
	assert.False(t, table.HasKey([]string{"a", "c"}))
	assert.False(t, table.HasKey(nil))
}

func TestTable_Validate(t *testing.T) {
	{
		// Valid
		assert.NoError(t, versionedTable().Validate())
	}
	{
		// No name
		table := versionedTable()
		table.Name = ""
		assert.ErrorContains(t, table.Validate(), "table name cannot be empty")
	}
	{
		// No key columns
		table := versionedTable()
		table.KeyColumns = nil
		assert.ErrorContains(t, table.Validate(), `table "dim_team" has no key columns`)
	}
	{
		// Key column does not exist
		table := versionedTable()
		table.KeyColumns = []string{"team_code"}
		assert.ErrorContains(t, table.Validate(), `key column "team_code" does not exist in table "dim_team"`)
	}
	{
		// Key column is auto-incremented
		table := versionedTable()
		table.KeyColumns = []string{"team_key"}
		assert.ErrorContains(t, table.Validate(), `key column "team_key" of table "dim_team" cannot be auto-incremented`)
	}
	{
		// Duplicate column
		table := versionedTable()
		table.Columns = append(table.Columns, Column{Name: "team_name", Kind: typing.String})
		assert.ErrorContains(t, table.Validate(), `table "dim_team" has duplicate column "team_name"`)
	}
	{
		// Invalid kind
		table := versionedTable()
		table.Columns = append(table.Columns, Column{Name: "location", Kind: "geography"})
		assert.ErrorContains(t, table.Validate(), `column "location" of table "dim_team" has an unsupported kind: "geography"`)
	}
	{
		// Versioned table without bookkeeping columns
		table := versionedTable()
		table.Columns = table.Columns[:4]
		assert.ErrorContains(t, table.Validate(), `versioned table "dim_team" is missing column`)
	}
	{
		// Versioned and append-only
		table := versionedTable()
		table.Policy = AppendOnly
		assert.ErrorContains(t, table.Validate(), `table "dim_team" cannot be both versioned and append-only`)
	}
	{
		// Index on a missing column
		table := versionedTable()
		table.Indexes = []Index{{Name: "idx_team", Columns: []string{"team_code"}}}
		assert.ErrorContains(t, table.Validate(), `index "idx_team" references column "team_code" which does not exist in table "dim_team"`)
	}
	{
		// Incomplete lookup
		table := versionedTable()
		table.Lookups[0].SurrogateKey = ""
		assert.ErrorContains(t, table.Validate(), `lookup for column "office_key" of table "dim_team" is incomplete`)
	}
}
