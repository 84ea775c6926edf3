package dialect

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/typing"
)

func TestMySQLDialect_QuoteIdentifier(t *testing.T) {
	dialect := MySQLDialect{}
	assert.Equal(t, "`foo`", dialect.QuoteIdentifier("foo"))
	assert.Equal(t, "`a``b`", dialect.QuoteIdentifier("a`b"))
	assert.Equal(t, "?", dialect.Placeholder(3))
}

func TestMySQLDialect_DataTypeForKind(t *testing.T) {
	dialect := MySQLDialect{}
	assert.Equal(t, "VARCHAR(255)", dialect.DataTypeForKind(typing.String, true))
	assert.Equal(t, "TEXT", dialect.DataTypeForKind(typing.String, false))
	assert.Equal(t, "BIGINT", dialect.DataTypeForKind(typing.Integer, false))
	assert.Equal(t, "DATETIME(6)", dialect.DataTypeForKind(typing.Timestamp, false))
}

func TestMySQLDialect_BuildUpsertQuery(t *testing.T) {
	dialect := MySQLDialect{}
	{
		// Overwrite
		query, args, err := dialect.BuildUpsertQuery(sql.UpsertArgs{
			Table:         "dim_department",
			Columns:       []string{"department_id", "department_name"},
			KeyColumns:    []string{"department_id"},
			UpdateColumns: []string{"department_name"},
			ActiveOnly:    true,
			Rows:          [][]any{{"D1", "Sales"}, {"D2", "Finance"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, "INSERT INTO `dim_department` (`department_id`,`department_name`) VALUES (?,?),(?,?) AS new ON DUPLICATE KEY UPDATE `department_name`=new.`department_name`", query)
		assert.Equal(t, []any{"D1", "Sales", "D2", "Finance"}, args)
	}
	{
		// Append only
		query, _, err := dialect.BuildUpsertQuery(sql.UpsertArgs{
			Table:      "fact_timesheet",
			Columns:    []string{"employee_key", "work_date", "punch_in"},
			KeyColumns: []string{"employee_key", "work_date", "punch_in"},
			Rows:       [][]any{{1, "2024-01-15", "2024-01-15 08:00:00"}},
		})
		assert.NoError(t, err)
		assert.Equal(t, "INSERT INTO `fact_timesheet` (`employee_key`,`work_date`,`punch_in`) VALUES (?,?,?) AS new ON DUPLICATE KEY UPDATE `employee_key`=`employee_key`", query)
	}
}

func TestMySQLDialect_BuildKeyIndexQueries(t *testing.T) {
	dialect := MySQLDialect{}
	{
		// Versioned tables use generated columns
		table := schema.Table{
			Name:       "dim_department",
			Columns:    []schema.Column{{Name: "department_id", Kind: typing.String}},
			KeyColumns: []string{"department_id"},
			Versioning: schema.SCD2,
		}
		assert.Equal(t, []string{
			"ALTER TABLE `dim_department` ADD COLUMN `department_id__active` VARCHAR(255) AS (CASE WHEN `is_active` = 1 THEN `department_id` END) STORED",
			"CREATE UNIQUE INDEX `uq_dim_department_active` ON `dim_department` (`department_id__active`)",
		}, dialect.BuildKeyIndexQueries(table))
	}
	{
		// Plain unique index otherwise
		table := schema.Table{
			Name:       "dim_date",
			Columns:    []schema.Column{{Name: "work_date", Kind: typing.Date}},
			KeyColumns: []string{"work_date"},
			Versioning: schema.NotVersioned,
		}
		assert.Equal(t, []string{"CREATE UNIQUE INDEX `uq_dim_date_key` ON `dim_date` (`work_date`)"}, dialect.BuildKeyIndexQueries(table))
	}
	{
		// Secondary index
		index := schema.Index{Name: "idx_employee_workdate", Columns: []string{"employee_key", "work_date"}}
		assert.Equal(t, "CREATE INDEX `idx_employee_workdate` ON `fact_timesheet` (`employee_key`,`work_date`)", dialect.BuildCreateIndexQuery("fact_timesheet", index))
	}
}

func TestMySQLDialect_Errors(t *testing.T) {
	dialect := MySQLDialect{}
	assert.True(t, dialect.IsRetryableErr(fmt.Errorf("failed to commit: %w", &mysql.MySQLError{Number: 1213})))
	assert.True(t, dialect.IsRetryableErr(&mysql.MySQLError{Number: 1205}))
	assert.False(t, dialect.IsRetryableErr(&mysql.MySQLError{Number: 1452}))

	assert.True(t, dialect.IsAlreadyExistsErr(&mysql.MySQLError{Number: 1061}))
	assert.True(t, dialect.IsAlreadyExistsErr(&mysql.MySQLError{Number: 1060}))
	assert.False(t, dialect.IsAlreadyExistsErr(fmt.Errorf("Duplicate key name")))
}
