package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository"
	"github.com/nkiryanov/authd/internal/service/auth/tokenmanager"
)

type Config struct {
	// Hasher to use during registration and login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// AuthService orchestrates register, login, logout and refresh flows over
// the token manager and the user repository
type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher

	// Storage to access long term data
	storage repository.Storage

	// Hash compared against on the unknown-email login path, so both
	// failure paths cost one bcrypt compare and stay indistinguishable
	dummyHash string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("can't prepare dummy hash. Err: %w", err)
	}

	return &AuthService{
		token:     token,
		hasher:    hasher,
		storage:   storage,
		dummyHash: dummyHash,
	}, nil
}

// Register creates a user with the default role and issues a token pair.
// Fails with apperrors.ErrUserAlreadyExists if the email is taken.
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (models.TokenPair, models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, models.User{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	var user models.User
	var pair models.TokenPair

	// Create the user and store its first refresh token in one
	// transaction: a user never exists half-registered
	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		user, err = st.User().CreateUser(ctx, repository.CreateUserParams{
			Username:       username,
			Email:          normalizeEmail(email),
			HashedPassword: hash,
			Role:           models.DefaultRole,
		})
		if err != nil {
			return err
		}

		pair, err = s.issuePair(ctx, st.User(), user.ID)
		return err
	})
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	return pair, user, nil
}

// Login verifies credentials and issues a fresh token pair. The new refresh
// token overwrites whatever was stored: one active session per user.
// Unknown email and wrong password both return apperrors.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, normalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Burn a compare anyway so the timing does not reveal
		// whether the email exists
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.TokenPair{}, models.User{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.TokenPair{}, models.User{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, models.User{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, s.storage.User(), user.ID)
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	return pair, user, nil
}

// Logout clears the stored refresh token. Idempotent: logging out twice is ok.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.storage.User().UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("can't clear refresh token. Err: %w", err)
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated. The presented value must exactly
// equal the stored one, otherwise it was superseded or revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshValue string) (models.IssuedToken, error) {
	claims, err := s.token.Verify(refreshValue, models.TokenKindRefresh)
	if err != nil {
		return models.IssuedToken{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.IssuedToken{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.IssuedToken{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.IssuedToken{}, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshValue {
		return models.IssuedToken{}, apperrors.ErrRefreshTokenRevoked
	}

	access, err := s.token.Mint(user.ID, models.TokenKindAccess)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("can't mint access token. Err: %w", err)
	}

	return access, nil
}

// Authenticate resolves a bearer access token to its user
func (s *AuthService) Authenticate(ctx context.Context, accessValue string) (models.User, error) {
	claims, err := s.token.Verify(accessValue, models.TokenKindAccess)
	if err != nil {
		return models.User{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Mint a pair and persist the refresh value on the user row. A single
// UPDATE replaces the previous token, so any earlier refresh token stops
// being accepted the moment this returns.
func (s *AuthService) issuePair(ctx context.Context, repo repository.UserRepo, userID uuid.UUID) (models.TokenPair, error) {
	pair, err := s.token.MintPair(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't mint token pair. Err: %w", err)
	}

	if err := repo.UpdateRefreshToken(ctx, userID, &pair.Refresh.Value); err != nil {
		return models.TokenPair{}, fmt.Errorf("can't store refresh token. Err: %w", err)
	}

	return pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
