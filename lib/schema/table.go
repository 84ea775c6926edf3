package schema

import (
	"fmt"
	"slices"

	"github.com/artie-labs/dimload/lib/typing"
)

// Bookkeeping columns carried by every SCD2 versioned table.
const (
	StartDateColumn = "start_date"
	EndDateColumn   = "end_date"
	IsActiveColumn  = "is_active"
)

type Versioning string

const (
	NotVersioned Versioning = "none"
	SCD2         Versioning = "scd2"
)

type Policy string

const (
	// Overwrite updates every written non-key column when the key already exists.
	Overwrite Policy = "overwrite"
	// AppendOnly ignores rows whose key already exists.
	AppendOnly Policy = "append_only"
)

type Reference struct {
	Table  string
	Column string
}

type Column struct {
	Name          string
	Kind          typing.Kind
	Nullable      bool
	AutoIncrement bool
	References    *Reference
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Lookup fills [Column] with the surrogate key of the [Table] row whose [NaturalKey] equals the row's [SourceColumn].
type Lookup struct {
	Column       string
	SourceColumn string
	Table        string
	NaturalKey   string
	SurrogateKey string
	// ActiveOnly restricts matches to the current version of a versioned [Table].
	ActiveOnly bool
	// Required lookups reject the row when the source value is absent or no active row matches.
	Required bool
}

type Table struct {
	Name       string
	Columns    []Column
	KeyColumns []string
	Versioning Versioning
	Policy     Policy
	Indexes    []Index
	Lookups    []Lookup
	// Derive is called on a copy of every incoming row before validation.
	Derive func(row map[string]any) error
}

func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}

	return Column{}, false
}

func (t Table) IsVersioned() bool {
	return t.Versioning == SCD2
}

func (t Table) IsKeyColumn(name string) bool {
	return slices.Contains(t.KeyColumns, name)
}

// WritableColumns returns every column that is not generated by the store, in declaration order.
func (t Table) WritableColumns() []string {
	var cols []string
	for _, col := range t.Columns {
		if !col.AutoIncrement {
			cols = append(cols, col.Name)
		}
	}
	return cols
}

// NonKeyColumns returns the writable columns that are not part of the key, in declaration order.
func (t Table) NonKeyColumns() []string {
	var cols []string
	for _, col := range t.WritableColumns() {
		if !t.IsKeyColumn(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// TrackedColumns filters the SCD2 bookkeeping columns out of [nonKeyColumns].
func TrackedColumns(nonKeyColumns []string) []string {
	var cols []string
	for _, col := range nonKeyColumns {
		if !IsBookkeepingColumn(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

func IsBookkeepingColumn(name string) bool {
	switch name {
	case StartDateColumn, EndDateColumn, IsActiveColumn:
		return true
	default:
		return false
	}
}

func (t Table) LookupFor(column string) (Lookup, bool) {
	for _, lookup := range t.Lookups {
		if lookup.Column == column {
			return lookup, true
		}
	}

	return Lookup{}, false
}

// DependsOn returns the other tables this table references through foreign keys or lookups, sorted by name.
func (t Table) DependsOn() []string {
	var deps []string
	add := func(name string) {
		if name != "" && name != t.Name && !slices.Contains(deps, name) {
			deps = append(deps, name)
		}
	}

	for _, col := range t.Columns {
		if col.References != nil {
			add(col.References.Table)
		}
	}
	for _, lookup := range t.Lookups {
		add(lookup.Table)
	}

	slices.Sort(deps)
	return deps
}

// HasKey reports whether [cols] is, as a set, the table's declared key.
func (t Table) HasKey(cols []string) bool {
	if len(cols) != len(t.KeyColumns) {
		return false
	}

	for _, col := range cols {
		if !t.IsKeyColumn(col) {
			return false
		}
	}

	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if seen[col] {
			return false
		}
		seen[col] = true
	}

	return true
}

// KeyIndexName is the name of the unique index enforcing the table's key (among active rows when versioned).
func (t Table) KeyIndexName() string {
	if t.IsVersioned() {
		return fmt.Sprintf("uq_%s_active", t.Name)
	}

	return fmt.Sprintf("uq_%s_key", t.Name)
}

func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if col.Name == "" {
			return fmt.Errorf("table %q has a column without a name", t.Name)
		}

		if seen[col.Name] {
			return fmt.Errorf("table %q has duplicate column %q", t.Name, col.Name)
		}
		seen[col.Name] = true

		if !col.Kind.IsValid() {
			return fmt.Errorf("column %q of table %q has an unsupported kind: %q", col.Name, t.Name, col.Kind)
		}

		if col.References != nil && (col.References.Table == "" || col.References.Column == "") {
			return fmt.Errorf("column %q of table %q has an incomplete reference", col.Name, t.Name)
		}
	}

	if len(t.KeyColumns) == 0 {
		return fmt.Errorf("table %q has no key columns", t.Name)
	}

	for _, key := range t.KeyColumns {
		col, ok := t.Column(key)
		if !ok {
			return fmt.Errorf("key column %q does not exist in table %q", key, t.Name)
		}

		if col.AutoIncrement {
			return fmt.Errorf("key column %q of table %q cannot be auto-incremented", key, t.Name)
		}

		if col.Nullable {
			return fmt.Errorf("key column %q of table %q cannot be nullable", key, t.Name)
		}

		if IsBookkeepingColumn(key) {
			return fmt.Errorf("key column %q of table %q cannot be a bookkeeping column", key, t.Name)
		}
	}

	switch t.Versioning {
	case NotVersioned:
	case SCD2:
		if t.Policy == AppendOnly {
			return fmt.Errorf("table %q cannot be both versioned and append-only", t.Name)
		}

		for name, kind := range map[string]typing.Kind{StartDateColumn: typing.Date, EndDateColumn: typing.Date, IsActiveColumn: typing.Integer} {
			col, ok := t.Column(name)
			if !ok {
				return fmt.Errorf("versioned table %q is missing column %q", t.Name, name)
			}
			if col.Kind != kind {
				return fmt.Errorf("column %q of versioned table %q must be %q, got %q", name, t.Name, kind, col.Kind)
			}
		}
	default:
		return fmt.Errorf("table %q has an unsupported versioning: %q", t.Name, t.Versioning)
	}

	switch t.Policy {
	case Overwrite, AppendOnly:
	default:
		return fmt.Errorf("table %q has an unsupported policy: %q", t.Name, t.Policy)
	}

	for _, index := range t.Indexes {
		if index.Name == "" || len(index.Columns) == 0 {
			return fmt.Errorf("table %q has an index without a name or columns", t.Name)
		}

		for _, col := range index.Columns {
			if _, ok := t.Column(col); !ok {
				return fmt.Errorf("index %q references column %q which does not exist in table %q", index.Name, col, t.Name)
			}
		}
	}

	for _, lookup := range t.Lookups {
		if lookup.SourceColumn == "" || lookup.Table == "" || lookup.NaturalKey == "" || lookup.SurrogateKey == "" {
			return fmt.Errorf("lookup for column %q of table %q is incomplete", lookup.Column, t.Name)
		}

		col, ok := t.Column(lookup.Column)
		if !ok {
			return fmt.Errorf("lookup target %q does not exist in table %q", lookup.Column, t.Name)
		}

		if col.AutoIncrement {
			return fmt.Errorf("lookup target %q of table %q cannot be auto-incremented", lookup.Column, t.Name)
		}
	}

	return nil
}
