package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Returned for unknown email, wrong password and stale refresh tokens
	// alike. Callers must not leak which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenWrongKind        = errors.New("token kind mismatch")

	// The presented refresh token is well formed and correctly signed but
	// is not the one stored for the user anymore: a newer login superseded
	// it or logout cleared it
	ErrRefreshTokenRevoked = errors.New("refresh token is revoked")
)
