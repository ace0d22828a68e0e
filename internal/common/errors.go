// Package common defines shared constants and sentinel errors used across
// gophmatch layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Registration errors.
	ErrorInvalidInputProof = errors.New("invalid input proof")
	ErrorNotRegistered     = errors.New("account is not registered")

	// Application lifecycle errors.
	ErrorApplicationClosed = errors.New("application is closed")
	ErrorForbidden         = errors.New("forbidden")

	// Decryption without an access grant. Raised by the decryption gateway,
	// never by the matching core.
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
