package schema

import (
	"fmt"
	"slices"
)

// Registry holds explicitly registered table definitions. There is no global registry; callers build and pass one.
type Registry struct {
	tables map[string]Table
	order  []string
}

func NewRegistry(tables ...Table) (*Registry, error) {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, table := range tables {
		if err := table.Validate(); err != nil {
			return nil, fmt.Errorf("invalid table: %w", err)
		}

		if _, ok := r.tables[table.Name]; ok {
			return nil, fmt.Errorf("table %q is registered more than once", table.Name)
		}

		r.tables[table.Name] = table
		r.order = append(r.order, table.Name)
	}

	for _, table := range tables {
		if err := r.validateReferences(table); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) validateReferences(table Table) error {
	for _, col := range table.Columns {
		if col.References == nil {
			continue
		}

		target, ok := r.tables[col.References.Table]
		if !ok {
			return fmt.Errorf("column %q of table %q references unknown table %q", col.Name, table.Name, col.References.Table)
		}

		if _, ok = target.Column(col.References.Column); !ok {
			return fmt.Errorf("column %q of table %q references unknown column %q.%q", col.Name, table.Name, target.Name, col.References.Column)
		}
	}

	for _, lookup := range table.Lookups {
		target, ok := r.tables[lookup.Table]
		if !ok {
			return fmt.Errorf("lookup for %q of table %q references unknown table %q", lookup.Column, table.Name, lookup.Table)
		}

		if lookup.ActiveOnly && !target.IsVersioned() {
			return fmt.Errorf("lookup for %q of table %q is restricted to active rows but %q is not versioned", lookup.Column, table.Name, target.Name)
		}

		for _, col := range []string{lookup.NaturalKey, lookup.SurrogateKey} {
			if _, ok = target.Column(col); !ok {
				return fmt.Errorf("lookup for %q of table %q references unknown column %q.%q", lookup.Column, table.Name, target.Name, col)
			}
		}
	}

	return nil
}

func (r *Registry) Get(name string) (Table, error) {
	table, ok := r.tables[name]
	if !ok {
		return Table{}, fmt.Errorf("table %q is not registered", name)
	}

	return table, nil
}

// Tables returns every registered table in registration order.
func (r *Registry) Tables() []Table {
	tables := make([]Table, len(r.order))
	for i, name := range r.order {
		tables[i] = r.tables[name]
	}
	return tables
}

// Levels groups [names] so that every table only depends on tables of earlier levels.
// Dependencies outside of [names] are assumed to be loaded already. Tables within a level are sorted by name.
func (r *Registry) Levels(names []string) ([][]string, error) {
	pending := make(map[string][]string, len(names))
	for _, name := range names {
		table, err := r.Get(name)
		if err != nil {
			return nil, err
		}

		var deps []string
		for _, dep := range table.DependsOn() {
			if slices.Contains(names, dep) {
				deps = append(deps, dep)
			}
		}
		pending[name] = deps
	}

	done := make(map[string]bool, len(names))
	var levels [][]string
	for len(pending) > 0 {
		var level []string
		for name, deps := range pending {
			ready := true
			for _, dep := range deps {
				if !done[dep] {
					ready = false
					break
				}
			}

			if ready {
				level = append(level, name)
			}
		}

		if len(level) == 0 {
			remaining := make([]string, 0, len(pending))
			for name := range pending {
				remaining = append(remaining, name)
			}
			slices.Sort(remaining)
			return nil, fmt.Errorf("tables have a dependency cycle: %v", remaining)
		}

		slices.Sort(level)
		for _, name := range level {
			done[name] = true
			delete(pending, name)
		}
		levels = append(levels, level)
	}

	return levels, nil
}
