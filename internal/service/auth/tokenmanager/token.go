package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	defaultSigningMethod = "HS256"
)

// Claims carried inside every signed token. Kind makes the token usable
// only for its declared purpose: Verify rejects a refresh token presented
// as an access token and vice versa.
type Claims struct {
	jwt.RegisteredClaims
	Kind models.TokenKind `json:"kind"`
}

// UserID returns the token subject parsed as user id
func (c Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", apperrors.ErrTokenMalformed)
	}
	return id, nil
}

// Token manager config with sensible defaults
type Config struct {
	// Separate signing secrets per token kind
	// Both required to be set
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager mints and verifies signed access and refresh tokens.
// It keeps no state: safe for concurrent use.
type TokenManager struct {
	accessSecret  string
	refreshSecret string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("both access and refresh signing secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, DefaultAccessTTL)
	setDefaultDuration(&cfg.RefreshTTL, DefaultRefreshTTL)

	return &TokenManager{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// Mint a signed token of the given kind for the user
func (m *TokenManager) Mint(userID uuid.UUID, kind models.TokenKind) (models.IssuedToken, error) {
	secret, ttl, err := m.kindParams(kind)
	if err != nil {
		return models.IssuedToken{}, err
	}

	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   userID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Kind: kind,
		},
	)

	value, err := token.SignedString([]byte(secret))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// MintPair mints an access and a refresh token for the user
func (m *TokenManager) MintPair(userID uuid.UUID) (models.TokenPair, error) {
	access, err := m.Mint(userID, models.TokenKindAccess)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := m.Mint(userID, models.TokenKindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify checks the token signature with the secret of the expected kind,
// its expiry and its declared kind. Returns one of the apperrors token
// sentinels on failure.
func (m *TokenManager) Verify(value string, expectedKind models.TokenKind) (Claims, error) {
	secret, _, err := m.kindParams(expectedKind)
	if err != nil {
		return Claims{}, err
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, fmt.Errorf("%w: %s token", apperrors.ErrTokenExpired, expectedKind)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, fmt.Errorf("%w: %s token", apperrors.ErrTokenSignatureInvalid, expectedKind)
	default:
		return Claims{}, fmt.Errorf("%w: %s", apperrors.ErrTokenMalformed, err)
	}

	if claims.Kind != expectedKind {
		return Claims{}, fmt.Errorf("%w: got %q, want %q", apperrors.ErrTokenWrongKind, claims.Kind, expectedKind)
	}

	return *claims, nil
}

func (m *TokenManager) kindParams(kind models.TokenKind) (secret string, ttl time.Duration, err error) {
	switch kind {
	case models.TokenKindAccess:
		return m.accessSecret, m.accessTTL, nil
	case models.TokenKindRefresh:
		return m.refreshSecret, m.refreshTTL, nil
	default:
		return "", 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
