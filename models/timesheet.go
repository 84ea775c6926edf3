package models

import (
	"fmt"

	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/typing"
)

const (
	DimDepartmentTable = "dim_department"
	DimEmployeeTable   = "dim_employee"
	DimDateTable       = "dim_date"
	FactTimesheetTable = "fact_timesheet"
)

func scd2Columns() []schema.Column {
	return []schema.Column{
		{Name: schema.IsActiveColumn, Kind: typing.Integer},
		{Name: schema.StartDateColumn, Kind: typing.Date},
		{Name: schema.EndDateColumn, Kind: typing.Date, Nullable: true},
	}
}

func DimDepartment() schema.Table {
	return schema.Table{
		Name: DimDepartmentTable,
		Columns: append([]schema.Column{
			{Name: "department_key", Kind: typing.Integer, AutoIncrement: true},
			{Name: "department_id", Kind: typing.String},
			{Name: "department_name", Kind: typing.String},
		}, scd2Columns()...),
		KeyColumns: []string{"department_id"},
		Versioning: schema.SCD2,
		Policy:     schema.Overwrite,
	}
}

func DimEmployee() schema.Table {
	return schema.Table{
		Name: DimEmployeeTable,
		Columns: append([]schema.Column{
			{Name: "employee_key", Kind: typing.Integer, AutoIncrement: true},
			{Name: "employee_id", Kind: typing.String},
			{Name: "first_name", Kind: typing.String, Nullable: true},
			{Name: "last_name", Kind: typing.String, Nullable: true},
			{Name: "job_title", Kind: typing.String, Nullable: true},
			{
				Name:       "department_key",
				Kind:       typing.Integer,
				Nullable:   true,
				References: &schema.Reference{Table: DimDepartmentTable, Column: "department_key"},
			},
			{Name: "hire_date", Kind: typing.Date, Nullable: true},
			{Name: "termination_date", Kind: typing.Date, Nullable: true},
		}, scd2Columns()...),
		KeyColumns: []string{"employee_id"},
		Versioning: schema.SCD2,
		Policy:     schema.Overwrite,
		Lookups: []schema.Lookup{
			{
				Column:       "department_key",
				SourceColumn: "department_id",
				Table:        DimDepartmentTable,
				NaturalKey:   "department_id",
				SurrogateKey: "department_key",
				ActiveOnly:   true,
			},
		},
	}
}

func DimDate() schema.Table {
	return schema.Table{
		Name: DimDateTable,
		Columns: []schema.Column{
			{Name: "date_id", Kind: typing.Integer, AutoIncrement: true},
			{Name: "work_date", Kind: typing.Date},
			{Name: "year", Kind: typing.Integer, Nullable: true},
			{Name: "month", Kind: typing.Integer, Nullable: true},
			{Name: "day", Kind: typing.Integer, Nullable: true},
			{Name: "week", Kind: typing.Integer, Nullable: true},
			{Name: "quarter", Kind: typing.Integer, Nullable: true},
		},
		KeyColumns: []string{"work_date"},
		Versioning: schema.NotVersioned,
		Policy:     schema.Overwrite,
		Derive:     DeriveDateParts,
	}
}

func FactTimesheet() schema.Table {
	return schema.Table{
		Name: FactTimesheetTable,
		Columns: []schema.Column{
			{Name: "id", Kind: typing.Integer, AutoIncrement: true},
			{Name: "employee_id", Kind: typing.String},
			{
				Name:       "employee_key",
				Kind:       typing.Integer,
				References: &schema.Reference{Table: DimEmployeeTable, Column: "employee_key"},
			},
			{
				Name:       "department_key",
				Kind:       typing.Integer,
				Nullable:   true,
				References: &schema.Reference{Table: DimDepartmentTable, Column: "department_key"},
			},
			{
				Name:       "work_date",
				Kind:       typing.Date,
				References: &schema.Reference{Table: DimDateTable, Column: "work_date"},
			},
			{Name: "punch_in", Kind: typing.Timestamp},
			{Name: "punch_out", Kind: typing.Timestamp, Nullable: true},
			{Name: "scheduled_start", Kind: typing.String, Nullable: true},
			{Name: "scheduled_end", Kind: typing.String, Nullable: true},
			{Name: "hours_worked", Kind: typing.Float, Nullable: true},
			{Name: "pay_code", Kind: typing.String, Nullable: true},
			{Name: "punch_in_comment", Kind: typing.String, Nullable: true},
			{Name: "punch_out_comment", Kind: typing.String, Nullable: true},
		},
		// One row per punch event. The natural employee id outlives the surrogate, which changes with every version.
		KeyColumns: []string{"employee_id", "work_date", "punch_in"},
		Versioning: schema.NotVersioned,
		Policy:     schema.AppendOnly,
		Indexes: []schema.Index{
			{Name: "idx_employee_workdate", Columns: []string{"employee_key", "work_date"}},
			{Name: "idx_fact_timesheet_department_key", Columns: []string{"department_key"}},
		},
		Lookups: []schema.Lookup{
			{
				Column:       "employee_key",
				SourceColumn: "employee_id",
				Table:        DimEmployeeTable,
				NaturalKey:   "employee_id",
				SurrogateKey: "employee_key",
				ActiveOnly:   true,
				Required:     true,
			},
			{
				Column:       "department_key",
				SourceColumn: "department_id",
				Table:        DimDepartmentTable,
				NaturalKey:   "department_id",
				SurrogateKey: "department_key",
				ActiveOnly:   true,
			},
		},
	}
}

// Registry returns a registry holding the four warehouse tables.
func Registry() (*schema.Registry, error) {
	registry, err := schema.NewRegistry(DimDepartment(), DimEmployee(), DimDate(), FactTimesheet())
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	return registry, nil
}
