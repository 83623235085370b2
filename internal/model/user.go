// Package model defines domain entities for the application.
package model

import "time"

// User is an account owned by the identity subsystem. The ticket issuer
// only ever reads users; it never creates them.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}
