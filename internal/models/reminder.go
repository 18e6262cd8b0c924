package models

import "time"

// Reminder is a notification scheduled for a user, optionally tied to a
// task. Deleting the task removes its reminders.
type Reminder struct {
	_ struct{} `dbdef:"table:reminders;index:idx_reminders_user_id,user_id;index:idx_reminders_reminder_time,reminder_time"`

	ID           int64     `db:"id" dbdef:"type:serial;primary_key" json:"id"`
	Title        string    `db:"title" dbdef:"type:varchar(200);not_null" json:"title"`
	Message      *string   `db:"message" dbdef:"type:text" json:"message,omitempty"`
	ReminderTime time.Time `db:"reminder_time" dbdef:"type:timestamptz;not_null" json:"reminder_time"`
	IsSent       bool      `db:"is_sent" dbdef:"type:boolean;not_null;default:false" json:"is_sent"`
	CreatedAt    time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()" json:"created_at"`
	UserID       int64     `db:"user_id" dbdef:"type:integer;not_null;foreign_key:users.id;on_delete:CASCADE" json:"user_id"`
	TaskID       *int64    `db:"task_id" dbdef:"type:integer;foreign_key:tasks.id;on_delete:CASCADE" json:"task_id,omitempty"`
}

// Due reports whether the reminder should fire at now.
func (r Reminder) Due(now time.Time) bool {
	return !r.IsSent && !r.ReminderTime.After(now)
}
