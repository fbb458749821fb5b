package models

import (
	"time"
)

// TokenKind tells access and refresh tokens apart. The kind is carried
// inside the signed claims, so a refresh token can never be presented
// where an access token is expected and vice versa.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
