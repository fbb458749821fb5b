package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
)

func newManager(t *testing.T, accessTTL time.Duration, refreshTTL time.Duration) *TokenManager {
	t.Helper()

	m, err := New(Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
	require.NoError(t, err, "token manager should be created without errors")

	return m
}

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{AccessSecret: "access", RefreshSecret: "refresh"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, DefaultAccessTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, DefaultRefreshTTL, m.refreshTTL, "default refresh token TTL should be set")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new fails without secrets", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  Config
		}{
			{name: "no secrets", cfg: Config{}},
			{name: "no access secret", cfg: Config{RefreshSecret: "refresh"}},
			{name: "no refresh secret", cfg: Config{AccessSecret: "access"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(tt.cfg)

				require.Error(t, err, "manager must not start without both secrets")
			})
		}
	})

	t.Run("Mint", func(t *testing.T) {
		t.Run("access claims", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			token, err := m.Mint(userID, models.TokenKindAccess)
			require.NoError(t, err)

			claims, err := m.Verify(token.Value, models.TokenKindAccess)
			require.NoError(t, err, "freshly minted token should verify")

			gotID, err := claims.UserID()
			require.NoError(t, err)
			assert.Equal(t, userID, gotID, "subject should be the user the token was minted for")
			assert.Equal(t, models.TokenKindAccess, claims.Kind)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
			assert.WithinDuration(t, token.ExpiresAt, claims.ExpiresAt.Time, 0, "expires at should match issued token")
		})

		t.Run("pair tokens differ and carry kinds", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			pair, err := m.MintPair(userID)
			require.NoError(t, err)

			assert.NotEqual(t, pair.Access.Value, pair.Refresh.Value, "access and refresh tokens should differ")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)

			_, err = m.Verify(pair.Access.Value, models.TokenKindAccess)
			require.NoError(t, err, "access token should verify as access")
			_, err = m.Verify(pair.Refresh.Value, models.TokenKindRefresh)
			require.NoError(t, err, "refresh token should verify as refresh")
		})

		t.Run("unknown kind fails", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			_, err := m.Mint(userID, models.TokenKind("session"))

			require.Error(t, err, "unknown token kind should not be minted")
		})
	})

	t.Run("Verify", func(t *testing.T) {
		t.Run("not a token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			_, err := m.Verify("definitely not a token", models.TokenKindAccess)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrTokenMalformed)
		})

		t.Run("expired token", func(t *testing.T) {
			m := newManager(t, -time.Minute, 24*time.Hour)

			token, err := m.Mint(userID, models.TokenKindAccess)
			require.NoError(t, err)

			_, err = m.Verify(token.Value, models.TokenKindAccess)

			require.Error(t, err, "token minted in the past must be expired")
			require.ErrorIs(t, err, apperrors.ErrTokenExpired)
		})

		t.Run("wrong secret", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)
			other, err := New(Config{AccessSecret: "other-access", RefreshSecret: "other-refresh"})
			require.NoError(t, err)

			token, err := other.Mint(userID, models.TokenKindAccess)
			require.NoError(t, err)

			_, err = m.Verify(token.Value, models.TokenKindAccess)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrTokenSignatureInvalid)
		})

		t.Run("kind mismatch", func(t *testing.T) {
			// Same secret for both kinds so only the kind claim differs
			m, err := New(Config{AccessSecret: "shared-secret", RefreshSecret: "shared-secret"})
			require.NoError(t, err)

			refresh, err := m.Mint(userID, models.TokenKindRefresh)
			require.NoError(t, err)

			_, err = m.Verify(refresh.Value, models.TokenKindAccess)

			require.Error(t, err, "refresh token must not be accepted where access is expected")
			require.ErrorIs(t, err, apperrors.ErrTokenWrongKind)
		})

		t.Run("refresh is not valid as access with distinct secrets", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			refresh, err := m.Mint(userID, models.TokenKindRefresh)
			require.NoError(t, err)

			_, err = m.Verify(refresh.Value, models.TokenKindAccess)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrTokenSignatureInvalid, "different signing secret should fail first")
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute, 24*time.Hour)

			// Create valid but unsigned token
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Subject:   userID.String(),
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					Kind: models.TokenKindAccess,
				},
			)
			value, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.Verify(value, models.TokenKindAccess)

			require.Error(t, err, "valid token with alg=none must fail")
		})
	})
}
