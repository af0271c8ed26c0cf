package model

import "time"

// Generation is a saved pairing of a user prompt with the image and
// description the generator returned for it. One row is written per submit.
//
// The json tags mirror the row columns so the browser sees the same shape
// it renders in the gallery:
//
//	{"id":"...","prompt":"a red fox","image_url":"/placeholder.png",...}
type Generation struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"user_id"     db:"user_id"`
	Prompt      string    `json:"prompt"      db:"prompt"`
	ImageURL    string    `json:"image_url"   db:"image_url"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}
