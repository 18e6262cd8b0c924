package orm

import (
	"fmt"
	"reflect"

	"github.com/eleven-am/tasknest/internal/parser"
)

// ColumnMetadata describes a mapped struct field.
type ColumnMetadata struct {
	DBName       string
	FieldName    string
	IsPrimaryKey bool
	HasDefault   bool
	IsNullable   bool
}

// ModelMetadata describes how a model maps onto its table. ColumnOrder keeps
// struct field order so generated SQL is stable.
type ModelMetadata struct {
	TableName   string
	PrimaryKeys []string
	Columns     map[string]*ColumnMetadata
	ColumnOrder []string
}

// MetadataFor derives metadata from the db and dbdef tags of T.
func MetadataFor[T any]() (*ModelMetadata, error) {
	var zero T
	table, err := parser.NewModelParser().ParseType(reflect.TypeOf(zero))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	metadata := &ModelMetadata{
		TableName:   table.TableName,
		Columns:     make(map[string]*ColumnMetadata, len(table.Fields)),
		ColumnOrder: make([]string, 0, len(table.Fields)),
	}

	for _, field := range table.Fields {
		_, isPK := field.DBDef["primary_key"]
		_, hasDefault := field.DBDef["default"]
		_, notNull := field.DBDef["not_null"]

		metadata.Columns[field.Name] = &ColumnMetadata{
			DBName:       field.DBName,
			FieldName:    field.Name,
			IsPrimaryKey: isPK,
			HasDefault:   hasDefault || isPK,
			IsNullable:   !isPK && (field.IsPointer || !notNull),
		}
		metadata.ColumnOrder = append(metadata.ColumnOrder, field.Name)

		if isPK {
			metadata.PrimaryKeys = append(metadata.PrimaryKeys, field.DBName)
		}
	}

	if len(metadata.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, table.TableName)
	}

	return metadata, nil
}

// DBColumns returns column names in field order. Fields absent from
// ColumnOrder are appended sorted by field name.
func (m *ModelMetadata) DBColumns() []string {
	order := m.ColumnOrder
	if len(order) != len(m.Columns) {
		order = sortedKeys(m.Columns)
	}

	columns := make([]string, 0, len(order))
	for _, field := range order {
		if col, ok := m.Columns[field]; ok {
			columns = append(columns, col.DBName)
		}
	}
	return columns
}

// HasColumn reports whether name is a mapped column.
func (m *ModelMetadata) HasColumn(name string) bool {
	for _, col := range m.Columns {
		if col.DBName == name {
			return true
		}
	}
	return false
}
