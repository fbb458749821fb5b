package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository/postgres"
	"github.com/nkiryanov/authd/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/authd/internal/testutil"
)

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, accessTTL time.Duration, refreshTTL time.Duration, t *testing.T, fn func(s *AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tm, err := tokenmanager.New(tokenmanager.Config{
				AccessSecret:  "test-access-secret",
				RefreshSecret: "test-refresh-secret",
				AccessTTL:     accessTTL,
				RefreshTTL:    refreshTTL,
			})
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{}, tm, storage)
			require.NoError(t, err, "auth service couldn't be started")

			fn(s)
		})
	}

	t.Run("new service validates deps", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil)

		require.Error(t, err, "service must not start without token manager and repo")
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, user, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")

				require.NoError(t, err, "registering new user should be ok")
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
				require.Equal(t, "alice", user.Username)
				require.Equal(t, "alice@x.com", user.Email)
				require.Equal(t, models.RoleUser, user.Role, "new users should get the default role")
				require.NotEqual(t, "pw123456", user.HashedPassword, "password should be stored hashed")
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				_, _, err = s.Register(t.Context(), "other-alice", "alice@x.com", "other-pwd")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})

		t.Run("email lookup is case insensitive", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, _, err := s.Register(t.Context(), "alice", "Alice@X.com", "pw123456")
				require.NoError(t, err)

				_, _, err = s.Login(t.Context(), "alice@x.com", "pw123456")

				require.NoError(t, err, "email should be matched case insensitively")
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("registered user ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, registered, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				pair, user, err := s.Login(t.Context(), "alice@x.com", "pw123456")

				require.NoError(t, err)
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
				require.Equal(t, registered.ID, user.ID)
				require.Equal(t, registered.Role, user.Role, "login should return the same role as registration")
			})
		})

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{
				name:     "wrong password",
				email:    "alice@x.com",
				password: "wrong",
			},
			{
				name:     "unknown email",
				email:    "nobody@x.com",
				password: "pw123456",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name+" fails the same way", func(t *testing.T) {
				withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
					_, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
					require.NoError(t, err)

					_, _, err = s.Login(t.Context(), tt.email, tt.password)

					require.Error(t, err)
					require.ErrorIs(t, err, apperrors.ErrInvalidCredentials,
						"both failure causes must be observably identical")
				})
			})
		}

		t.Run("login supersedes previous refresh token", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				first, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				second, _, err := s.Login(t.Context(), "alice@x.com", "pw123456")
				require.NoError(t, err)
				require.NotEqual(t, first.Refresh.Value, second.Refresh.Value)

				// The superseded token must never refresh again
				_, err = s.Refresh(t.Context(), first.Refresh.Value)
				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)

				// The current one still works
				_, err = s.Refresh(t.Context(), second.Refresh.Value)
				require.NoError(t, err)
			})
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("mints access for the same user", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, registered, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				access, err := s.Refresh(t.Context(), pair.Refresh.Value)

				require.NoError(t, err)
				require.NotEmpty(t, access.Value)

				user, err := s.Authenticate(t.Context(), access.Value)
				require.NoError(t, err, "minted access token should authenticate")
				require.Equal(t, registered.ID, user.ID, "access token must resolve to the user it was minted for")
			})
		})

		t.Run("refresh token is not rotated", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				// Same refresh token keeps working until superseded or cleared
				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.NoError(t, err, "refresh must not invalidate the refresh token")
			})
		})

		t.Run("fail if expired", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, -time.Minute, t, func(s *AuthService) {
				pair, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenExpired)
			})
		})

		t.Run("fail if access token presented", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Access.Value)

				require.Error(t, err, "access token must not be usable for refresh")
			})
		})

		t.Run("fail if garbage", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Refresh(t.Context(), "not-a-token")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes refresh token", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, user, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				err = s.Logout(t.Context(), user.ID)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
			})
		})

		t.Run("idempotent", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, user, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), user.ID))
				require.NoError(t, s.Logout(t.Context(), user.ID), "second logout should succeed too")
			})
		})

		t.Run("unknown user fails", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				err := s.Logout(t.Context(), uuid.New())

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("refresh token rejected", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				_, err = s.Authenticate(t.Context(), pair.Refresh.Value)

				require.Error(t, err, "refresh token must not authenticate requests")
			})
		})

		t.Run("expired access rejected", func(t *testing.T) {
			withTx(pg.Pool, -time.Minute, 24*time.Hour, t, func(s *AuthService) {
				pair, _, err := s.Register(t.Context(), "alice", "alice@x.com", "pw123456")
				require.NoError(t, err)

				_, err = s.Authenticate(t.Context(), pair.Access.Value)

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrTokenExpired)
			})
		})
	})
}
