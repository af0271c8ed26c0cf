// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The ID is a UUID generated when the account is created and is what the
// session token carries as its subject. PasswordHash holds the bcrypt hash
// and is never serialized.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"` // stored lower-cased
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
