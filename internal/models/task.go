package models

import (
	"math"
	"time"
)

// Category groups tasks in listings and the calendar.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryAssignment Category = "assignment"
	CategoryProject    Category = "project"
	CategoryExam       Category = "exam"
	CategoryCAT        Category = "cat"
)

// Categories lists every accepted category.
var Categories = []Category{CategoryGeneral, CategoryAssignment, CategoryProject, CategoryExam, CategoryCAT}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Task is a unit of work owned by a user. Category, priority and status
// fall back to column defaults when omitted on insert.
type Task struct {
	_ struct{} `dbdef:"table:tasks;index:idx_tasks_user_id,user_id;index:idx_tasks_deadline,deadline;index:idx_tasks_status,status"`

	ID          int64      `db:"id" dbdef:"type:serial;primary_key" json:"id"`
	Title       string     `db:"title" dbdef:"type:varchar(200);not_null" json:"title"`
	Description *string    `db:"description" dbdef:"type:text" json:"description,omitempty"`
	Category    Category   `db:"category" dbdef:"type:varchar(50);not_null;default:'general'" json:"category"`
	Priority    Priority   `db:"priority" dbdef:"type:varchar(20);not_null;default:'medium'" json:"priority"`
	Status      Status     `db:"status" dbdef:"type:varchar(20);not_null;default:'pending'" json:"status"`
	Deadline    time.Time  `db:"deadline" dbdef:"type:timestamptz;not_null" json:"deadline"`
	CreatedAt   time.Time  `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" dbdef:"type:timestamptz;not_null;default:now()" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" dbdef:"type:timestamptz" json:"completed_at,omitempty"`
	UserID      int64      `db:"user_id" dbdef:"type:integer;not_null;foreign_key:users.id;on_delete:CASCADE" json:"user_id"`
}

// IsOverdue reports whether the deadline has passed on an unfinished task.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.Deadline.Before(now)
}

// DaysRemaining is the number of whole days until the deadline, rounded
// down; negative once the deadline has passed.
func (t Task) DaysRemaining(now time.Time) int {
	return int(math.Floor(t.Deadline.Sub(now).Hours() / 24))
}
