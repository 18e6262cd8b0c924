package models

import "time"

type Exam struct {
	_ struct{} `dbdef:"table:exams;index:idx_exams_user_id,user_id"`

	ID        int64     `db:"id" dbdef:"type:serial;primary_key" json:"id"`
	Subject   string    `db:"subject" dbdef:"type:varchar(100);not_null" json:"subject"`
	ExamDate  time.Time `db:"exam_date" dbdef:"type:timestamptz;not_null" json:"exam_date"`
	ExamType  *string   `db:"exam_type" dbdef:"type:varchar(50)" json:"exam_type,omitempty"`
	Location  *string   `db:"location" dbdef:"type:varchar(100)" json:"location,omitempty"`
	Notes     *string   `db:"notes" dbdef:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()" json:"created_at"`
	UserID    int64     `db:"user_id" dbdef:"type:integer;not_null;foreign_key:users.id;on_delete:CASCADE" json:"user_id"`
}
