package ddl

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	mssqldialect "github.com/artie-labs/dimload/clients/mssql/dialect"
	"github.com/artie-labs/dimload/clients/sqlite"
	sqlitedialect "github.com/artie-labs/dimload/clients/sqlite/dialect"
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/config/constants"
	"github.com/artie-labs/dimload/lib/db"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/models"
)

type mockDestination struct {
	db.Store
	dialect sql.Dialect
}

func (m mockDestination) GetConfig() config.Config {
	return config.Config{}
}

func (m mockDestination) Dialect() sql.Dialect {
	return m.dialect
}

type DDLTestSuite struct {
	suite.Suite
	registry *schema.Registry
	store    *sqlite.Store
}

func (d *DDLTestSuite) SetupTest() {
	registry, err := models.Registry()
	d.Require().NoError(err)
	d.registry = registry

	store, err := sqlite.LoadStore(d.T().Context(), config.Config{Output: constants.SQLite, SQLite: &config.SQLite{Path: ":memory:"}})
	d.Require().NoError(err)
	d.store = store
}

func (d *DDLTestSuite) TearDownTest() {
	d.NoError(d.store.Close())
}

func (d *DDLTestSuite) objectNames(objectType string) []string {
	rows, err := d.store.QueryContext(d.T().Context(), "SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name", objectType)
	d.Require().NoError(err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		d.Require().NoError(rows.Scan(&name))
		names = append(names, name)
	}
	d.Require().NoError(rows.Err())
	return names
}

func (d *DDLTestSuite) TestCreateTables() {
	d.NoError(CreateTables(d.T().Context(), d.store, d.registry, nil))
	d.Equal([]string{"dim_date", "dim_department", "dim_employee", "fact_timesheet"}, d.objectNames("table"))
	d.Equal([]string{
		"idx_employee_workdate",
		"idx_fact_timesheet_department_key",
		"uq_dim_date_key",
		"uq_dim_department_active",
		"uq_dim_employee_active",
		"uq_fact_timesheet_key",
	}, d.objectNames("index"))

	// Running it again is a no-op.
	d.NoError(CreateTables(d.T().Context(), d.store, d.registry, nil))
	d.Len(d.objectNames("table"), 4)
}

func (d *DDLTestSuite) TestCreateTables_Subset() {
	d.NoError(CreateTables(d.T().Context(), d.store, d.registry, []string{models.DimDepartmentTable}))
	d.Equal([]string{"dim_department"}, d.objectNames("table"))

	d.ErrorContains(CreateTables(d.T().Context(), d.store, d.registry, []string{"dim_unknown"}), `table "dim_unknown" is not registered`)
}

func (d *DDLTestSuite) TestCreateTables_ActiveKeyIsUnique() {
	ctx := d.T().Context()
	d.NoError(CreateTables(ctx, d.store, d.registry, []string{models.DimDepartmentTable}))

	insert := `INSERT INTO "dim_department" ("department_id","department_name","is_active","start_date","end_date") VALUES (?,?,?,?,?)`
	_, err := d.store.ExecContext(ctx, insert, "D1", "Sales", 0, "2024-01-01", "2024-02-01")
	d.NoError(err)
	_, err = d.store.ExecContext(ctx, insert, "D1", "Sales Ops", 1, "2024-02-01", nil)
	d.NoError(err)

	// A second active row for the same key is rejected.
	_, err = d.store.ExecContext(ctx, insert, "D1", "Marketing", 1, "2024-03-01", nil)
	d.ErrorContains(err, "UNIQUE constraint failed")
}

func (d *DDLTestSuite) TestCreateTables_ForeignKeys() {
	ctx := d.T().Context()
	d.NoError(CreateTables(ctx, d.store, d.registry, nil))

	_, err := d.store.ExecContext(ctx, `INSERT INTO "fact_timesheet" ("employee_id","employee_key","work_date","punch_in") VALUES (?,?,?,?)`, "E1", 42, "2024-01-15", "2024-01-15 08:00:00")
	d.ErrorContains(err, "FOREIGN KEY constraint failed")
}

func TestDDLTestSuite(t *testing.T) {
	suite.Run(t, new(DDLTestSuite))
}

func TestBuildCreateTableStatements(t *testing.T) {
	statements := BuildCreateTableStatements(sqlitedialect.SQLiteDialect{}, models.FactTimesheet())
	assert.Len(t, statements, 4)
	assert.Contains(t, statements[0], `CREATE TABLE IF NOT EXISTS "fact_timesheet" ("id" INTEGER PRIMARY KEY AUTOINCREMENT,`)
	assert.Contains(t, statements[0], `FOREIGN KEY ("employee_key") REFERENCES "dim_employee"("employee_key")`)
	assert.Equal(t, `CREATE UNIQUE INDEX IF NOT EXISTS "uq_fact_timesheet_key" ON "fact_timesheet" ("employee_id","work_date","punch_in")`, statements[1])
	assert.Equal(t, `CREATE INDEX IF NOT EXISTS "idx_employee_workdate" ON "fact_timesheet" ("employee_key","work_date")`, statements[2])
}

func TestCreateTables_AlreadyExists(t *testing.T) {
	registry, err := schema.NewRegistry(models.DimDate())
	require.NoError(t, err)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dest := mockDestination{Store: db.New(mockDB), dialect: mssqldialect.MSSQLDialect{}}
	{
		// Objects that already exist are skipped.
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "dim_date"`)).WillReturnError(fmt.Errorf("There is already an object named 'dim_date' in the database."))
		mock.ExpectExec(regexp.QuoteMeta(`CREATE UNIQUE INDEX "uq_dim_date_key"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.NoError(t, CreateTables(t.Context(), dest, registry, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	}
	{
		// Other errors are returned.
		mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "dim_date"`)).WillReturnError(fmt.Errorf("permission denied"))
		err := CreateTables(t.Context(), dest, registry, nil)
		assert.ErrorContains(t, err, `failed to create table "dim_date"`)
		assert.ErrorContains(t, err, "permission denied")
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}
