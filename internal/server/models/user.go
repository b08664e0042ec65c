package models

import "time"

// User is an account identity. ID is stable for the lifetime of the account.
// PasswordHash is a bcrypt hash, never the plaintext; comparison goes through
// auth.VerifyPassword, never string equality.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
