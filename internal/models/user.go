package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string
	Email          string
	HashedPassword string
	Role           Role

	// Currently valid refresh token value, nil when logged out.
	// At most one token is valid per user: every login or registration
	// overwrites it, logout clears it.
	RefreshToken *string
}
