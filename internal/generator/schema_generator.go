package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eleven-am/tasknest/internal/parser"
)

// SchemaColumn represents a column in the target database schema
type SchemaColumn struct {
	Name            string
	Type            string
	IsNullable      bool
	DefaultValue    *string
	IsPrimaryKey    bool
	IsUnique        bool
	IsAutoIncrement bool
	ForeignKey      *ForeignKeyRef
	CheckConstraint *string
}

// ForeignKeyRef represents a foreign key reference
type ForeignKeyRef struct {
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         string
}

// SchemaTable represents a table in the target database schema
type SchemaTable struct {
	Name        string
	Columns     []SchemaColumn
	Indexes     []SchemaIndex
	Constraints []SchemaConstraint
}

// SchemaIndex represents a database index
type SchemaIndex struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// SchemaConstraint represents a named table constraint
type SchemaConstraint struct {
	Name       string
	Type       string // CHECK or UNIQUE
	Definition string
	Columns    []string
}

// DatabaseSchema is the model-derived target schema. Order keeps the
// sequence in which models were registered.
type DatabaseSchema struct {
	Tables map[string]SchemaTable
	Order  []string
}

// SchemaGenerator converts parsed struct definitions to database schema
type SchemaGenerator struct {
	tagParser *parser.TagParser
}

// NewSchemaGenerator creates a new schema generator
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		tagParser: parser.NewTagParser(),
	}
}

// GenerateSchema converts table definitions to database schema
func (g *SchemaGenerator) GenerateSchema(tables []parser.TableDefinition) (*DatabaseSchema, error) {
	schema := &DatabaseSchema{
		Tables: make(map[string]SchemaTable, len(tables)),
		Order:  make([]string, 0, len(tables)),
	}

	for _, tableDef := range tables {
		if _, exists := schema.Tables[tableDef.TableName]; exists {
			return nil, fmt.Errorf("table %s defined more than once", tableDef.TableName)
		}

		schemaTable, err := g.generateTable(tableDef)
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for table %s: %w", tableDef.TableName, err)
		}
		schema.Tables[schemaTable.Name] = schemaTable
		schema.Order = append(schema.Order, schemaTable.Name)
	}

	for _, name := range schema.Order {
		for _, col := range schema.Tables[name].Columns {
			if col.ForeignKey == nil {
				continue
			}
			ref, ok := schema.Tables[col.ForeignKey.ReferencedTable]
			if !ok {
				return nil, fmt.Errorf("%s.%s references unknown table %s", name, col.Name, col.ForeignKey.ReferencedTable)
			}
			if _, ok := ref.Column(col.ForeignKey.ReferencedColumn); !ok {
				return nil, fmt.Errorf("%s.%s references unknown column %s.%s", name, col.Name, ref.Name, col.ForeignKey.ReferencedColumn)
			}
		}
	}

	return schema, nil
}

func (g *SchemaGenerator) generateTable(tableDef parser.TableDefinition) (SchemaTable, error) {
	table := SchemaTable{
		Name:        tableDef.TableName,
		Columns:     make([]SchemaColumn, 0, len(tableDef.Fields)),
		Indexes:     make([]SchemaIndex, 0),
		Constraints: make([]SchemaConstraint, 0),
	}

	for _, field := range tableDef.Fields {
		column, err := g.generateColumn(field)
		if err != nil {
			return table, fmt.Errorf("failed to generate column %s: %w", field.Name, err)
		}
		table.Columns = append(table.Columns, column)
	}

	if err := g.processTableLevel(tableDef.TableLevel, &table); err != nil {
		return table, fmt.Errorf("failed to process table-level definitions: %w", err)
	}

	return table, nil
}

func (g *SchemaGenerator) generateColumn(field parser.FieldDefinition) (SchemaColumn, error) {
	column := SchemaColumn{
		Name: field.DBName,
	}

	pgType, err := g.mapGoTypeToPostgreSQL(field.Type, field.DBDef)
	if err != nil {
		return column, fmt.Errorf("failed to map type for field %s: %w", field.Name, err)
	}
	column.Type = pgType

	column.IsNullable = field.IsPointer || !g.tagParser.HasFlag(field.DBDef, "not_null")

	column.IsPrimaryKey = g.tagParser.HasFlag(field.DBDef, "primary_key")
	if column.IsPrimaryKey {
		column.IsNullable = false
	}

	column.IsUnique = g.tagParser.HasFlag(field.DBDef, "unique")
	column.IsAutoIncrement = strings.Contains(column.Type, "SERIAL")

	if defaultVal := g.tagParser.GetDefault(field.DBDef); defaultVal != "" {
		column.DefaultValue = &defaultVal
	}

	if fkRef := g.tagParser.GetForeignKey(field.DBDef); fkRef != "" {
		fk, err := g.parseForeignKeyRef(fkRef, g.tagParser.GetOnDelete(field.DBDef))
		if err != nil {
			return column, fmt.Errorf("invalid foreign key reference: %w", err)
		}
		column.ForeignKey = fk
	}

	if checkExpr, exists := field.DBDef["check"]; exists {
		column.CheckConstraint = &checkExpr
	}

	return column, nil
}

// mapGoTypeToPostgreSQL prefers the explicit dbdef type, then falls back to
// the Go type of the field.
func (g *SchemaGenerator) mapGoTypeToPostgreSQL(goType string, dbDef map[string]string) (string, error) {
	if pgType := g.tagParser.GetType(dbDef); pgType != "" {
		return strings.ToUpper(pgType), nil
	}

	switch goType {
	case "string":
		return "TEXT", nil
	case "int", "int32":
		return "INTEGER", nil
	case "int64":
		return "BIGINT", nil
	case "int16":
		return "SMALLINT", nil
	case "float64":
		return "DOUBLE PRECISION", nil
	case "bool":
		return "BOOLEAN", nil
	case "time.Time":
		return "TIMESTAMPTZ", nil
	}

	return "", fmt.Errorf("no column type for Go type %s; set dbdef type", goType)
}

func (g *SchemaGenerator) parseForeignKeyRef(fkRef, onDelete string) (*ForeignKeyRef, error) {
	table, column, ok := strings.Cut(fkRef, ".")
	if !ok {
		return nil, fmt.Errorf("foreign key must be in format 'table.column', got: %s", fkRef)
	}

	if onDelete == "" {
		onDelete = "NO ACTION"
	}

	return &ForeignKeyRef{
		ReferencedTable:  strings.TrimSpace(table),
		ReferencedColumn: strings.TrimSpace(column),
		OnDelete:         onDelete,
	}, nil
}

func (g *SchemaGenerator) processTableLevel(tableLevelDef map[string]string, table *SchemaTable) error {
	keys := make([]string, 0, len(tableLevelDef))
	for key := range tableLevelDef {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := tableLevelDef[key]
		switch key {
		case "table":
			continue
		case "index":
			indexes, err := g.parseIndexDefinition(value)
			if err != nil {
				return fmt.Errorf("failed to parse index definition: %w", err)
			}
			table.Indexes = append(table.Indexes, indexes...)
		case "unique":
			for _, def := range splitDefinitions(value) {
				constraint, err := g.parseUniqueConstraint(def)
				if err != nil {
					return err
				}
				table.Constraints = append(table.Constraints, constraint)
			}
		case "check":
			for _, def := range splitDefinitions(value) {
				constraint, err := g.parseCheckConstraint(def)
				if err != nil {
					return err
				}
				table.Constraints = append(table.Constraints, constraint)
			}
		default:
			return fmt.Errorf("unknown table-level attribute '%s'", key)
		}
	}

	for _, constraint := range table.Constraints {
		for _, col := range constraint.Columns {
			if _, ok := table.Column(col); !ok {
				return fmt.Errorf("constraint %s references unknown column %s", constraint.Name, col)
			}
		}
	}
	for _, index := range table.Indexes {
		for _, col := range index.Columns {
			if _, ok := table.Column(col); !ok {
				return fmt.Errorf("index %s references unknown column %s", index.Name, col)
			}
		}
	}

	return nil
}

// parseIndexDefinition parses "idx_name,col1,col2[,unique]" entries
// separated by ";".
func (g *SchemaGenerator) parseIndexDefinition(indexDef string) ([]SchemaIndex, error) {
	var indexes []SchemaIndex

	for _, def := range splitDefinitions(indexDef) {
		parts := strings.Split(def, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("index definition must have at least name and one column: %s", def)
		}

		index := SchemaIndex{
			Name:    strings.TrimSpace(parts[0]),
			Columns: make([]string, 0, len(parts)-1),
		}

		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			switch {
			case part == "":
				continue
			case strings.EqualFold(part, "unique"):
				index.IsUnique = true
			default:
				index.Columns = append(index.Columns, part)
			}
		}

		if len(index.Columns) == 0 {
			return nil, fmt.Errorf("index must have at least one column: %s", def)
		}

		indexes = append(indexes, index)
	}

	return indexes, nil
}

func (g *SchemaGenerator) parseUniqueConstraint(uniqueDef string) (SchemaConstraint, error) {
	parts := strings.Split(uniqueDef, ",")
	if len(parts) < 2 {
		return SchemaConstraint{}, fmt.Errorf("unique constraint must have name and columns: %s", uniqueDef)
	}

	constraint := SchemaConstraint{
		Name:    strings.TrimSpace(parts[0]),
		Type:    "UNIQUE",
		Columns: make([]string, 0, len(parts)-1),
	}
	for _, col := range parts[1:] {
		if col = strings.TrimSpace(col); col != "" {
			constraint.Columns = append(constraint.Columns, col)
		}
	}
	constraint.Definition = fmt.Sprintf("UNIQUE (%s)", strings.Join(constraint.Columns, ", "))

	return constraint, nil
}

func (g *SchemaGenerator) parseCheckConstraint(checkDef string) (SchemaConstraint, error) {
	name, expr, ok := strings.Cut(checkDef, ",")
	if !ok || strings.TrimSpace(expr) == "" {
		return SchemaConstraint{}, fmt.Errorf("check constraint must have name and expression: %s", checkDef)
	}

	return SchemaConstraint{
		Name:       strings.TrimSpace(name),
		Type:       "CHECK",
		Definition: fmt.Sprintf("CHECK (%s)", strings.TrimSpace(expr)),
	}, nil
}

func splitDefinitions(value string) []string {
	var defs []string
	for _, def := range strings.Split(value, ";") {
		if def = strings.TrimSpace(def); def != "" {
			defs = append(defs, def)
		}
	}
	return defs
}

// Column looks up a column by name.
func (t SchemaTable) Column(name string) (SchemaColumn, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return SchemaColumn{}, false
}

// PrimaryKey returns the primary key column names.
func (t SchemaTable) PrimaryKey() []string {
	var cols []string
	for _, col := range t.Columns {
		if col.IsPrimaryKey {
			cols = append(cols, col.Name)
		}
	}
	return cols
}

// HasTable checks if a table exists in the schema
func (s *DatabaseSchema) HasTable(tableName string) bool {
	_, exists := s.Tables[tableName]
	return exists
}

// GetTable retrieves a table from the schema
func (s *DatabaseSchema) GetTable(tableName string) (SchemaTable, bool) {
	table, exists := s.Tables[tableName]
	return table, exists
}
