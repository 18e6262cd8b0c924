package orm

import (
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// Column is a typed reference to a table column.
type Column[T any] struct {
	Name  string
	Table string
}

// String returns the qualified column reference.
func (c Column[T]) String() string {
	if c.Table != "" {
		return fmt.Sprintf("%s.%s", c.Table, c.Name)
	}
	return c.Name
}

func (c Column[T]) Eq(value T) Condition {
	return Condition{squirrel.Eq{c.String(): value}}
}

func (c Column[T]) NotEq(value T) Condition {
	return Condition{squirrel.NotEq{c.String(): value}}
}

// NotIn excludes every value listed.
func (c Column[T]) NotIn(values ...T) Condition {
	interfaces := make([]interface{}, len(values))
	for i, v := range values {
		interfaces[i] = v
	}
	return Condition{squirrel.NotEq{c.String(): interfaces}}
}

// Asc creates an ascending order expression
func (c Column[T]) Asc() string {
	return c.String() + " ASC"
}

// Desc creates a descending order expression
func (c Column[T]) Desc() string {
	return c.String() + " DESC"
}

// Comparable types that support ordering operators.
type Comparable interface {
	~int | ~int16 | ~int32 | ~int64 | ~float64 | ~string | time.Time
}

// ComparableColumn adds range operators.
type ComparableColumn[T Comparable] struct {
	Column[T]
}

func (c ComparableColumn[T]) Gte(value T) Condition {
	return Condition{squirrel.GtOrEq{c.String(): value}}
}

func (c ComparableColumn[T]) Lt(value T) Condition {
	return Condition{squirrel.Lt{c.String(): value}}
}

func (c ComparableColumn[T]) Lte(value T) Condition {
	return Condition{squirrel.LtOrEq{c.String(): value}}
}

// StringColumn provides string-specific operations
type StringColumn struct {
	Column[string]
}

func (c StringColumn) ILike(pattern string) Condition {
	return Condition{squirrel.ILike{c.String(): pattern}}
}

// Contains matches a case-insensitive substring.
func (c StringColumn) Contains(substring string) Condition {
	return c.ILike("%" + substring + "%")
}

// NumericColumn provides numeric-specific operations
type NumericColumn[T ~int | ~int16 | ~int32 | ~int64 | ~float64] struct {
	ComparableColumn[T]
}

// TimeColumn provides time-specific operations
type TimeColumn struct {
	ComparableColumn[time.Time]
}

func (c TimeColumn) Before(t time.Time) Condition {
	return c.Lt(t)
}

// Since includes t itself.
func (c TimeColumn) Since(t time.Time) Condition {
	return c.Gte(t)
}

// Until includes t itself.
func (c TimeColumn) Until(t time.Time) Condition {
	return c.Lte(t)
}

// BoolColumn provides boolean-specific operations
type BoolColumn struct {
	Column[bool]
}

func (c BoolColumn) IsTrue() Condition {
	return c.Eq(true)
}

func (c BoolColumn) IsFalse() Condition {
	return c.Eq(false)
}

// Condition wraps squirrel conditions for type safety
type Condition struct {
	condition squirrel.Sqlizer
}

// ToSqlizer returns the underlying squirrel condition
func (c Condition) ToSqlizer() squirrel.Sqlizer {
	return c.condition
}

// Or combines conditions with OR.
func Or(conditions ...Condition) Condition {
	sqlizers := make(squirrel.Or, len(conditions))
	for i, c := range conditions {
		sqlizers[i] = c.condition
	}
	return Condition{sqlizers}
}
