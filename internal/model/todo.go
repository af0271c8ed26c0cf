package model

import "time"

// Todo is a user-owned task with a completion flag.
//
// Description is a pointer because an empty description is stored as NULL
// and omitted from the JSON output.
type Todo struct {
	ID          string    `json:"id"                    db:"id"`
	UserID      string    `json:"user_id"               db:"user_id"`
	Title       string    `json:"title"                 db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Completed   bool      `json:"completed"             db:"completed"`
	CreatedAt   time.Time `json:"created_at"            db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"            db:"updated_at"`
}
