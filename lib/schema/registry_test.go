package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/dimload/lib/typing"
)

func officeTable() Table {
	return Table{
		Name: "dim_office",
		Columns: []Column{
			{Name: "office_key", Kind: typing.Integer, AutoIncrement: true},
			{Name: "office_id", Kind: typing.String},
		},
		KeyColumns: []string{"office_id"},
		Versioning: NotVersioned,
		Policy:     Overwrite,
	}
}

func visitTable() Table {
	return Table{
		Name: "fact_visit",
		Columns: []Column{
			{Name: "id", Kind: typing.Integer, AutoIncrement: true},
			{Name: "team_key", Kind: typing.Integer, References: &Reference{Table: "dim_team", Column: "team_key"}},
			{Name: "visited_at", Kind: typing.Timestamp},
		},
		KeyColumns: []string{"team_key", "visited_at"},
		Versioning: NotVersioned,
		Policy:     AppendOnly,
	}
}

func TestNewRegistry(t *testing.T) {
	{
		// Valid
		registry, err := NewRegistry(visitTable(), versionedTable(), officeTable())
		require.NoError(t, err)

		table, err := registry.Get("dim_team")
		assert.NoError(t, err)
		assert.Equal(t, "dim_team", table.Name)

		var names []string
		for _, table := range registry.Tables() {
			names = append(names, table.Name)
		}
		assert.Equal(t, []string{"fact_visit", "dim_team", "dim_office"}, names)

		_, err = registry.Get("dim_region")
		assert.ErrorContains(t, err, `table "dim_region" is not registered`)
	}
	{
		// Registered twice
		_, err := NewRegistry(officeTable(), officeTable())
		assert.ErrorContains(t, err, `table "dim_office" is registered more than once`)
	}
	{
		// Invalid table
		table := officeTable()
		table.KeyColumns = nil
		_, err := NewRegistry(table)
		assert.ErrorContains(t, err, `invalid table: table "dim_office" has no key columns`)
	}
	{
		// Reference to an unknown table
		_, err := NewRegistry(versionedTable())
		assert.ErrorContains(t, err, `column "office_key" of table "dim_team" references unknown table "dim_office"`)
	}
	{
		// Lookup to an unknown column
		table := versionedTable()
		table.Lookups[0].NaturalKey = "office_code"
		_, err := NewRegistry(table, officeTable())
		assert.ErrorContains(t, err, `lookup for "office_key" of table "dim_team" references unknown column "dim_office"."office_code"`)
	}
	{
		// Active only lookup to a table without versions
		table := versionedTable()
		table.Lookups[0].ActiveOnly = true
		_, err := NewRegistry(table, officeTable())
		assert.ErrorContains(t, err, `lookup for "office_key" of table "dim_team" is restricted to active rows but "dim_office" is not versioned`)
	}
}

func TestRegistry_Levels(t *testing.T) {
	registry, err := NewRegistry(visitTable(), versionedTable(), officeTable())
	require.NoError(t, err)
	{
		// Every table
		levels, err := registry.Levels([]string{"fact_visit", "dim_team", "dim_office"})
		assert.NoError(t, err)
		assert.Equal(t, [][]string{{"dim_office"}, {"dim_team"}, {"fact_visit"}}, levels)
	}
	{
		// Dependencies outside of the requested tables are ignored
		levels, err := registry.Levels([]string{"fact_visit", "dim_office"})
		assert.NoError(t, err)
		assert.Equal(t, [][]string{{"dim_office", "fact_visit"}}, levels)
	}
	{
		// Unknown table
		_, err := registry.Levels([]string{"dim_region"})
		assert.ErrorContains(t, err, `table "dim_region" is not registered`)
	}
	{
		// Cycle
		office := officeTable()
		office.Columns = append(office.Columns, Column{Name: "team_key", Kind: typing.Integer, Nullable: true, References: &Reference{Table: "dim_team", Column: "team_key"}})
		cyclic, err := NewRegistry(office, versionedTable())
		require.NoError(t, err)

		_, err = cyclic.Levels([]string{"dim_office", "dim_team"})
		assert.ErrorContains(t, err, "tables have a dependency cycle: [dim_office dim_team]")
	}
}
