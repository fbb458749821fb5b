package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nkiryanov/authd/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
	Role           models.Role
}

// User repository interface
type UserRepo interface {
	// Create user with the given credentials
	// If a user with the same email exists already has to return
	// apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Set or clear (token == nil) the user's stored refresh token.
	// Must be a single atomic update per user id: concurrent writers
	// resolve last-writer-wins, which is fine because only one refresh
	// token may be valid at a time anyway.
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// List all users ordered by creation time
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Storage aggregates repositories and allows running them in one transaction
type Storage interface {
	User() UserRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
