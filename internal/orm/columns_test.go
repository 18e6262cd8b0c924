package orm

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnConditions(t *testing.T) {
	id := NumericColumn[int64]{ComparableColumn: ComparableColumn[int64]{Column: Column[int64]{Name: "id", Table: "tasks"}}}
	title := StringColumn{Column: Column[string]{Name: "title", Table: "tasks"}}
	deadline := TimeColumn{ComparableColumn: ComparableColumn[time.Time]{Column: Column[time.Time]{Name: "deadline"}}}
	sent := BoolColumn{Column: Column[bool]{Name: "is_sent", Table: "reminders"}}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		condition Condition
		expected  string
		args      int
	}{
		{"Eq", id.Eq(1), "tasks.id = ?", 1},
		{"NotEq", id.NotEq(1), "tasks.id <> ?", 1},
		{"NotIn", id.NotIn(4, 9), "tasks.id NOT IN (?,?)", 2},
		{"Gte", id.Gte(5), "tasks.id >= ?", 1},
		{"Lt", id.Lt(5), "tasks.id < ?", 1},
		{"Lte", id.Lte(5), "tasks.id <= ?", 1},
		{"Contains", title.Contains("essay"), "tasks.title ILIKE ?", 1},
		{"ILike", title.ILike("lab%"), "tasks.title ILIKE ?", 1},
		{"Before", deadline.Before(now), "deadline < ?", 1},
		{"Since", deadline.Since(now), "deadline >= ?", 1},
		{"Until", deadline.Until(now), "deadline <= ?", 1},
		{"IsFalse", sent.IsFalse(), "reminders.is_sent = ?", 1},
		{"Or", Or(id.Eq(1), id.Eq(2)), "(tasks.id = ? OR tasks.id = ?)", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.condition.ToSqlizer().ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
			assert.Len(t, args, tt.args)
		})
	}
}

func TestColumnOrdering(t *testing.T) {
	col := Column[string]{Name: "deadline", Table: "tasks"}
	assert.Equal(t, "tasks.deadline ASC", col.Asc())
	assert.Equal(t, "tasks.deadline DESC", col.Desc())
	assert.Equal(t, "deadline", Column[string]{Name: "deadline"}.String())
}

func TestConditionComposition(t *testing.T) {
	a := Column[int]{Name: "a"}.Eq(1)
	b := Column[int]{Name: "b"}.Eq(2)

	sql, args, err := squirrel.Select("*").From("t").Where(Or(a, b).ToSqlizer()).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE (a = ? OR b = ?)", sql)
	assert.Equal(t, []interface{}{1, 2}, args)
}

func TestContainsWrapsPattern(t *testing.T) {
	title := StringColumn{Column: Column[string]{Name: "title"}}
	_, args, err := title.Contains("lab").ToSqlizer().ToSql()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"%lab%"}, args)
}
