package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository"
)

// UserService serves user profile reads. Account mutations live in the
// auth service.
type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// GetByID returns the user or apperrors.ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.storage.User().GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	return user, nil
}

// ListUsers returns all users ordered by creation time.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.storage.User().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list users. Err: %w", err)
	}

	return users, nil
}
