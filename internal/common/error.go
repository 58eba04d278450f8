// Package common defines the sentinel errors shared by the repositories,
// services and transport of the TaskKeeper server. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")

	// ErrSessionsRevoked is returned when a token append lost the race
	// against a logout from all devices.
	ErrSessionsRevoked = errors.New("sessions revoked")

	// Service-level errors.
	ErrValidation         = errors.New("validation failed")
	ErrInvalidFields      = errors.New("invalid updates")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")

	// Session token errors.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)
