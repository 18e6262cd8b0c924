package parser

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldDefinition represents a struct field with database metadata
type FieldDefinition struct {
	Name      string
	DBName    string
	Type      string
	IsPointer bool
	DBDef     map[string]string
}

// TableDefinition represents a complete table structure
type TableDefinition struct {
	StructName string
	TableName  string
	Fields     []FieldDefinition
	TableLevel map[string]string
}

// ModelParser reads table definitions from model struct values through
// reflection. Table-level attributes live on a blank `_ struct{}` field.
type ModelParser struct {
	tagParser *TagParser
}

func NewModelParser() *ModelParser {
	return &ModelParser{tagParser: NewTagParser()}
}

// ParseModels parses each model (a struct value or pointer to one).
func (p *ModelParser) ParseModels(models ...interface{}) ([]TableDefinition, error) {
	tables := make([]TableDefinition, 0, len(models))
	for _, model := range models {
		table, err := p.ParseType(reflect.TypeOf(model))
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// ParseType parses a single struct type.
func (p *ModelParser) ParseType(t reflect.Type) (TableDefinition, error) {
	if t == nil {
		return TableDefinition{}, fmt.Errorf("nil model")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return TableDefinition{}, fmt.Errorf("model %s is not a struct", t)
	}

	table := TableDefinition{
		StructName: t.Name(),
		TableName:  deriveTableName(t.Name()),
		Fields:     make([]FieldDefinition, 0, t.NumField()),
		TableLevel: make(map[string]string),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Name == "_" {
			tag := field.Tag.Get("dbdef")
			if err := p.tagParser.ValidateTableTag(tag); err != nil {
				return table, fmt.Errorf("%s: %w", t.Name(), err)
			}
			for k, v := range p.tagParser.ParseDBDefTag(tag) {
				table.TableLevel[k] = v
			}
			continue
		}

		if !field.IsExported() {
			continue
		}

		dbName := field.Tag.Get("db")
		if dbName == "-" {
			continue
		}
		if dbName == "" {
			dbName = toSnakeCase(field.Name)
		}

		dbdefTag := field.Tag.Get("dbdef")
		if err := p.tagParser.ValidateDBDefTag(dbdefTag); err != nil {
			return table, fmt.Errorf("%s.%s: %w", t.Name(), field.Name, err)
		}

		fieldType := field.Type
		isPointer := fieldType.Kind() == reflect.Ptr
		if isPointer {
			fieldType = fieldType.Elem()
		}

		table.Fields = append(table.Fields, FieldDefinition{
			Name:      field.Name,
			DBName:    dbName,
			Type:      fieldType.String(),
			IsPointer: isPointer,
			DBDef:     p.tagParser.ParseDBDefTag(dbdefTag),
		})
	}

	if tableName, exists := table.TableLevel["table"]; exists {
		table.TableName = tableName
	}

	if len(table.Fields) == 0 {
		return table, fmt.Errorf("model %s has no columns", t.Name())
	}

	return table, nil
}

// deriveTableName pluralizes the snake-cased struct name.
func deriveTableName(structName string) string {
	snake := toSnakeCase(structName)

	switch {
	case strings.HasSuffix(snake, "y") && !strings.HasSuffix(snake, "ey") &&
		!strings.HasSuffix(snake, "ay") && !strings.HasSuffix(snake, "oy"):
		return snake[:len(snake)-1] + "ies"
	case strings.HasSuffix(snake, "s") || strings.HasSuffix(snake, "sh") ||
		strings.HasSuffix(snake, "ch") || strings.HasSuffix(snake, "x"):
		return snake + "es"
	}
	return snake + "s"
}

// toSnakeCase converts Go identifiers, keeping initialisms together
// (UserID -> user_id, HTTPRequest -> http_request).
func toSnakeCase(s string) string {
	var result strings.Builder

	for i, r := range s {
		isUpper := r >= 'A' && r <= 'Z'

		if i > 0 && isUpper {
			prevIsLower := s[i-1] >= 'a' && s[i-1] <= 'z'
			prevIsDigit := s[i-1] >= '0' && s[i-1] <= '9'
			prevIsUpper := s[i-1] >= 'A' && s[i-1] <= 'Z'
			nextIsLower := i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z'

			if prevIsLower || prevIsDigit || (prevIsUpper && nextIsLower) {
				result.WriteByte('_')
			}
		}

		if isUpper {
			result.WriteRune(r - 'A' + 'a')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
