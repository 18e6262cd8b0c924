package models

import "time"

// Progress is one entry in a task's completion history.
type Progress struct {
	_ struct{} `dbdef:"table:progress;index:idx_progress_task_id,task_id;check:chk_progress_percentage,progress_percentage >= 0 AND progress_percentage <= 100"`

	ID                 int64     `db:"id" dbdef:"type:serial;primary_key" json:"id"`
	UserID             int64     `db:"user_id" dbdef:"type:integer;not_null;foreign_key:users.id;on_delete:CASCADE" json:"user_id"`
	TaskID             int64     `db:"task_id" dbdef:"type:integer;not_null;foreign_key:tasks.id;on_delete:CASCADE" json:"task_id"`
	ProgressPercentage int       `db:"progress_percentage" dbdef:"type:integer;not_null;default:0" json:"progress_percentage"`
	Notes              *string   `db:"notes" dbdef:"type:text" json:"notes,omitempty"`
	RecordedAt         time.Time `db:"recorded_at" dbdef:"type:timestamptz;not_null;default:now()" json:"recorded_at"`
}

// MaxProgress marks a task as done.
const MaxProgress = 100
