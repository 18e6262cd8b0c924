package models

import "time"

// User is a student account. Usernames and emails are unique across the
// table.
type User struct {
	_ struct{} `dbdef:"table:users;unique:uk_users_username,username;unique:uk_users_email,email"`

	ID           int64     `db:"id" dbdef:"type:serial;primary_key" json:"id"`
	Username     string    `db:"username" dbdef:"type:varchar(80);not_null" json:"username"`
	Email        string    `db:"email" dbdef:"type:varchar(120);not_null" json:"email"`
	PasswordHash string    `db:"password_hash" dbdef:"type:varchar(255);not_null" json:"-"`
	FullName     *string   `db:"full_name" dbdef:"type:varchar(120)" json:"full_name,omitempty"`
	ClassName    *string   `db:"class_name" dbdef:"type:varchar(50)" json:"class_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()" json:"created_at"`
}
