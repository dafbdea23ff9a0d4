// Package common defines shared constants, sentinel errors and small helpers
// used across client and server layers of gophauth. Callers should use
// errors.Is to match the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("invalid credentials")

	// Two-factor challenge errors.
	ErrNoChallenge = errors.New("no 2fa in progress")
	ErrCodeExpired = errors.New("2fa code expired")
	ErrInvalidCode = errors.New("invalid 2fa code")

	// Password reset errors. Unknown and expired tokens share one value.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
