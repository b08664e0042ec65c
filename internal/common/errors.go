// Package common defines shared constants and sentinel errors used across
// the layers of Expensio. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Token errors. ErrInvalidSignature covers both tampered and malformed
	// tokens: claims from such a token must never be trusted.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrSubjectMismatch  = errors.New("token subject mismatch")

	// Registration errors. These name the colliding field and are surfaced
	// to the caller verbatim.
	ErrDuplicateUsername = errors.New("username already in use")
	ErrDuplicateEmail    = errors.New("email already in use")

	// Login error. Kept distinct from ErrorNotFound internally for logging;
	// the HTTP layer reports both as the same generic failure.
	ErrInvalidCredentials = errors.New("invalid username/password")
)
