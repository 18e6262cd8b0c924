package generator

import (
	"fmt"
	"sort"
)

// DependencySorter sorts tables based on their foreign key dependencies
type DependencySorter struct {
	tables map[string]SchemaTable
	order  []string
}

// NewDependencySorter creates a new dependency sorter
func NewDependencySorter(schema *DatabaseSchema) *DependencySorter {
	order := schema.Order
	if len(order) != len(schema.Tables) {
		order = make([]string, 0, len(schema.Tables))
		for name := range schema.Tables {
			order = append(order, name)
		}
		sort.Strings(order)
	}

	return &DependencySorter{
		tables: schema.Tables,
		order:  order,
	}
}

// SortTables returns tables with every referenced table ahead of the tables
// that reference it. Ties keep registration order.
func (ds *DependencySorter) SortTables() ([]SchemaTable, error) {
	sorted := make([]SchemaTable, 0, len(ds.tables))
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(string) error
	visit = func(tableName string) error {
		if visited[tableName] {
			return nil
		}
		if visiting[tableName] {
			return fmt.Errorf("circular dependency detected involving table %s", tableName)
		}

		table, ok := ds.tables[tableName]
		if !ok {
			return fmt.Errorf("unknown table %s", tableName)
		}

		visiting[tableName] = true

		for _, dep := range ds.getTableDependencies(table) {
			if dep != tableName {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visiting[tableName] = false
		visited[tableName] = true
		sorted = append(sorted, table)

		return nil
	}

	for _, tableName := range ds.order {
		if err := visit(tableName); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}

// getTableDependencies returns referenced tables in column order.
func (ds *DependencySorter) getTableDependencies(table SchemaTable) []string {
	seen := make(map[string]bool)
	var deps []string

	for _, col := range table.Columns {
		if col.ForeignKey != nil && !seen[col.ForeignKey.ReferencedTable] {
			seen[col.ForeignKey.ReferencedTable] = true
			deps = append(deps, col.ForeignKey.ReferencedTable)
		}
	}

	return deps
}
