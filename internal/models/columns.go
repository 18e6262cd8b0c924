package models

import (
	"time"

	"github.com/eleven-am/tasknest/internal/orm"
)

func idColumn(table, name string) orm.NumericColumn[int64] {
	return orm.NumericColumn[int64]{ComparableColumn: orm.ComparableColumn[int64]{Column: orm.Column[int64]{Name: name, Table: table}}}
}

func intColumn(table, name string) orm.NumericColumn[int] {
	return orm.NumericColumn[int]{ComparableColumn: orm.ComparableColumn[int]{Column: orm.Column[int]{Name: name, Table: table}}}
}

func stringColumn(table, name string) orm.StringColumn {
	return orm.StringColumn{Column: orm.Column[string]{Name: name, Table: table}}
}

func timeColumn(table, name string) orm.TimeColumn {
	return orm.TimeColumn{ComparableColumn: orm.ComparableColumn[time.Time]{Column: orm.Column[time.Time]{Name: name, Table: table}}}
}

func boolColumn(table, name string) orm.BoolColumn {
	return orm.BoolColumn{Column: orm.Column[bool]{Name: name, Table: table}}
}

// UserColumns are typed references to users columns.
var UserColumns = struct {
	ID        orm.NumericColumn[int64]
	Username  orm.StringColumn
	Email     orm.StringColumn
	CreatedAt orm.TimeColumn
}{
	ID:        idColumn("users", "id"),
	Username:  stringColumn("users", "username"),
	Email:     stringColumn("users", "email"),
	CreatedAt: timeColumn("users", "created_at"),
}

var TaskColumns = struct {
	ID          orm.NumericColumn[int64]
	Title       orm.StringColumn
	Category    orm.Column[Category]
	Priority    orm.Column[Priority]
	Status      orm.Column[Status]
	Deadline    orm.TimeColumn
	CreatedAt   orm.TimeColumn
	UpdatedAt   orm.TimeColumn
	CompletedAt orm.TimeColumn
	UserID      orm.NumericColumn[int64]
}{
	ID:          idColumn("tasks", "id"),
	Title:       stringColumn("tasks", "title"),
	Category:    orm.Column[Category]{Name: "category", Table: "tasks"},
	Priority:    orm.Column[Priority]{Name: "priority", Table: "tasks"},
	Status:      orm.Column[Status]{Name: "status", Table: "tasks"},
	Deadline:    timeColumn("tasks", "deadline"),
	CreatedAt:   timeColumn("tasks", "created_at"),
	UpdatedAt:   timeColumn("tasks", "updated_at"),
	CompletedAt: timeColumn("tasks", "completed_at"),
	UserID:      idColumn("tasks", "user_id"),
}

var ReminderColumns = struct {
	ID           orm.NumericColumn[int64]
	ReminderTime orm.TimeColumn
	IsSent       orm.BoolColumn
	UserID       orm.NumericColumn[int64]
	TaskID       orm.NumericColumn[int64]
}{
	ID:           idColumn("reminders", "id"),
	ReminderTime: timeColumn("reminders", "reminder_time"),
	IsSent:       boolColumn("reminders", "is_sent"),
	UserID:       idColumn("reminders", "user_id"),
	TaskID:       idColumn("reminders", "task_id"),
}

var ProgressColumns = struct {
	ID                 orm.NumericColumn[int64]
	UserID             orm.NumericColumn[int64]
	TaskID             orm.NumericColumn[int64]
	ProgressPercentage orm.NumericColumn[int]
	RecordedAt         orm.TimeColumn
}{
	ID:                 idColumn("progress", "id"),
	UserID:             idColumn("progress", "user_id"),
	TaskID:             idColumn("progress", "task_id"),
	ProgressPercentage: intColumn("progress", "progress_percentage"),
	RecordedAt:         timeColumn("progress", "recorded_at"),
}

var ExamColumns = struct {
	ID       orm.NumericColumn[int64]
	Subject  orm.StringColumn
	ExamDate orm.TimeColumn
	UserID   orm.NumericColumn[int64]
}{
	ID:       idColumn("exams", "id"),
	Subject:  stringColumn("exams", "subject"),
	ExamDate: timeColumn("exams", "exam_date"),
	UserID:   idColumn("exams", "user_id"),
}
