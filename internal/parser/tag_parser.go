package parser

import (
	"fmt"
	"strings"
)

// TagParser handles parsing of dbdef struct tags
type TagParser struct{}

// NewTagParser creates a new tag parser instance
func NewTagParser() *TagParser {
	return &TagParser{}
}

// ParseDBDefTag parses a dbdef tag string into a map of attributes.
// Format: "type:varchar(80);not_null;default:'general'"
// Repeated keys (index, unique, check on the table marker) are joined with ";".
func (p *TagParser) ParseDBDefTag(tagValue string) map[string]string {
	attributes := make(map[string]string)

	if tagValue == "" {
		return attributes
	}

	for _, part := range strings.Split(tagValue, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !hasValue {
			attributes[key] = ""
			continue
		}

		value = strings.TrimSpace(value)
		if existing, exists := attributes[key]; exists {
			attributes[key] = existing + ";" + value
		} else {
			attributes[key] = value
		}
	}

	return attributes
}

// ValidateDBDefTag validates a column-level dbdef tag.
func (p *TagParser) ValidateDBDefTag(tagValue string) error {
	for key, value := range p.ParseDBDefTag(tagValue) {
		switch key {
		case "type":
			if err := p.validateType(value); err != nil {
				return fmt.Errorf("invalid type '%s': %w", value, err)
			}
		case "default":
			if value == "" {
				return fmt.Errorf("default value cannot be empty")
			}
		case "foreign_key", "fk":
			if err := p.validateForeignKey(value); err != nil {
				return fmt.Errorf("invalid foreign key '%s': %w", value, err)
			}
		case "on_delete":
			if err := p.validateOnDelete(value); err != nil {
				return fmt.Errorf("invalid on_delete '%s': %w", value, err)
			}
		case "check":
			if value == "" {
				return fmt.Errorf("check constraint cannot be empty")
			}
		case "primary_key", "not_null", "unique":
			if value != "" {
				return fmt.Errorf("flag attribute '%s' should not have a value", key)
			}
		default:
			return fmt.Errorf("unknown dbdef attribute '%s'", key)
		}
	}

	return nil
}

// ValidateTableTag validates the attributes of a table marker field.
func (p *TagParser) ValidateTableTag(tagValue string) error {
	for key, value := range p.ParseDBDefTag(tagValue) {
		switch key {
		case "table":
			if !isValidIdentifier(value) {
				return fmt.Errorf("invalid table name '%s'", value)
			}
		case "index", "unique", "check":
			for _, def := range strings.Split(value, ";") {
				name, rest, ok := strings.Cut(def, ",")
				if !ok || !isValidIdentifier(strings.TrimSpace(name)) || strings.TrimSpace(rest) == "" {
					return fmt.Errorf("%s must be in format 'name,definition', got: %s", key, def)
				}
			}
		default:
			return fmt.Errorf("unknown table attribute '%s'", key)
		}
	}
	return nil
}

func (p *TagParser) validateType(typeValue string) error {
	if typeValue == "" {
		return fmt.Errorf("type cannot be empty")
	}

	validTypes := map[string]bool{
		"smallint": true, "integer": true, "bigint": true,
		"serial": true, "bigserial": true,
		"numeric": true, "real": true, "double precision": true,
		"char": true, "varchar": true, "text": true,
		"timestamp": true, "timestamptz": true, "date": true,
		"boolean": true, "bool": true,
		"uuid": true, "jsonb": true,
	}

	baseType := typeValue
	if idx := strings.Index(typeValue, "("); idx != -1 {
		baseType = typeValue[:idx]
	}

	if !validTypes[strings.ToLower(baseType)] {
		return fmt.Errorf("unknown PostgreSQL type: %s", typeValue)
	}

	return nil
}

func (p *TagParser) validateForeignKey(fkValue string) error {
	table, column, ok := strings.Cut(fkValue, ".")
	if !ok || strings.Contains(column, ".") {
		return fmt.Errorf("foreign key must be in format 'table.column', got: %s", fkValue)
	}
	if strings.TrimSpace(table) == "" {
		return fmt.Errorf("table name cannot be empty in foreign key reference")
	}
	if strings.TrimSpace(column) == "" {
		return fmt.Errorf("column name cannot be empty in foreign key reference")
	}
	return nil
}

func (p *TagParser) validateOnDelete(action string) error {
	switch strings.ToUpper(action) {
	case "CASCADE", "SET NULL", "SET DEFAULT", "RESTRICT", "NO ACTION":
		return nil
	}
	return fmt.Errorf("must be one of: CASCADE, SET NULL, SET DEFAULT, RESTRICT, NO ACTION")
}

// isValidIdentifier checks if a string is a valid SQL identifier
func isValidIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}

	first := s[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first == '_') {
		return false
	}

	for i := 1; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}

	return true
}

// GetType extracts the PostgreSQL type from dbdef attributes
func (p *TagParser) GetType(attributes map[string]string) string {
	return attributes["type"]
}

// HasFlag checks if a flag attribute is present
func (p *TagParser) HasFlag(attributes map[string]string, flag string) bool {
	_, exists := attributes[flag]
	return exists
}

// GetDefault extracts the default value from dbdef attributes
func (p *TagParser) GetDefault(attributes map[string]string) string {
	return attributes["default"]
}

// GetForeignKey extracts the foreign key reference from dbdef attributes
func (p *TagParser) GetForeignKey(attributes map[string]string) string {
	if fkVal, exists := attributes["foreign_key"]; exists {
		return fkVal
	}
	return attributes["fk"]
}

// GetOnDelete returns the referential action in upper case, or "".
func (p *TagParser) GetOnDelete(attributes map[string]string) string {
	return strings.ToUpper(attributes["on_delete"])
}
