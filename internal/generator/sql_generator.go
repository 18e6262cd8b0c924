package generator

import (
	"fmt"
	"strings"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// SQLGenerator renders a DatabaseSchema as PostgreSQL DDL.
type SQLGenerator struct{}

func NewSQLGenerator() *SQLGenerator {
	return &SQLGenerator{}
}

// GenerateUp returns CREATE TABLE and CREATE INDEX statements with every
// table created after the tables it references.
func (g *SQLGenerator) GenerateUp(schema *DatabaseSchema) (string, error) {
	tables, err := NewDependencySorter(schema).SortTables()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, table := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(g.createTable(table))
		for _, index := range table.Indexes {
			b.WriteString(g.createIndex(table.Name, index))
		}
	}

	return b.String(), nil
}

// GenerateDown drops tables in reverse dependency order.
func (g *SQLGenerator) GenerateDown(schema *DatabaseSchema) (string, error) {
	tables, err := NewDependencySorter(schema).SortTables()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := len(tables) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;\n", tables[i].Name))
	}
	return b.String(), nil
}

// GenerateMigration renders a complete migration file with up and down
// sections.
func (g *SQLGenerator) GenerateMigration(schema *DatabaseSchema, name string) (string, error) {
	up, err := g.GenerateUp(schema)
	if err != nil {
		return "", err
	}
	down, err := g.GenerateDown(schema)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if name != "" {
		b.WriteString(fmt.Sprintf("-- Migration: %s\n", name))
	}
	b.WriteString(upMarker + "\n")
	b.WriteString(up)
	b.WriteString("\n" + downMarker + "\n")
	b.WriteString(down)
	return b.String(), nil
}

func (g *SQLGenerator) createTable(table SchemaTable) string {
	lines := make([]string, 0, len(table.Columns)+len(table.Constraints))
	for _, col := range table.Columns {
		lines = append(lines, "    "+g.columnDefinition(col))
	}
	for _, constraint := range table.Constraints {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s %s", constraint.Name, constraint.Definition))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);\n", table.Name, strings.Join(lines, ",\n"))
}

func (g *SQLGenerator) columnDefinition(col SchemaColumn) string {
	parts := []string{col.Name, col.Type}

	if col.IsPrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if !col.IsNullable {
		parts = append(parts, "NOT NULL")
	}

	if col.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+*col.DefaultValue)
	}

	if col.IsUnique {
		parts = append(parts, "UNIQUE")
	}

	if col.ForeignKey != nil {
		parts = append(parts, fmt.Sprintf("REFERENCES %s(%s)", col.ForeignKey.ReferencedTable, col.ForeignKey.ReferencedColumn))
		if col.ForeignKey.OnDelete != "" && col.ForeignKey.OnDelete != "NO ACTION" {
			parts = append(parts, "ON DELETE "+col.ForeignKey.OnDelete)
		}
	}

	if col.CheckConstraint != nil {
		parts = append(parts, fmt.Sprintf("CHECK (%s)", *col.CheckConstraint))
	}

	return strings.Join(parts, " ")
}

func (g *SQLGenerator) createIndex(tableName string, index SchemaIndex) string {
	unique := ""
	if index.IsUnique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);\n", unique, index.Name, tableName, strings.Join(index.Columns, ", "))
}
