// Package common defines shared constants and sentinel errors used across
// the client and server layers of Cartana Accounts. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Credential errors. ErrInvalidCredentials is deliberately the same for
	// an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Transport errors. The original cause is preserved by wrapping.
	ErrNetwork = errors.New("network failure")
)
