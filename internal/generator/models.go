package generator

import "github.com/eleven-am/tasknest/internal/parser"

// FromModels parses the given model values and builds their schema.
func FromModels(models ...interface{}) (*DatabaseSchema, error) {
	tables, err := parser.NewModelParser().ParseModels(models...)
	if err != nil {
		return nil, err
	}
	return NewSchemaGenerator().GenerateSchema(tables)
}
