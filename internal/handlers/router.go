package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/handlers/middleware"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	db pinger,
	l logger.Logger,
) http.Handler {
	protect := middleware.Protect(authService)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(authService, l))
	apiauth.Handle("POST /login", handleLogin(authService, l))
	apiauth.Handle("POST /refresh", handleRefresh(authService, l))
	apiauth.Handle("POST /logout", protect(handleLogout(authService, l)))

	apiusers := http.NewServeMux()
	apiusers.Handle("GET /me", protect(handleUserMe()))
	apiusers.Handle("GET /{$}", protect(adminOnly(handleListUsers(userService, l))))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/users/", http.StripPrefix("/api/users", apiusers))
	root.Handle("GET /health", handleHealth(db))

	return chain(root,
		middleware.Logger(l),
	)
}

type authService interface {
	// Register user with the default role and issue its first token pair
	// Has to return apperrors.ErrUserAlreadyExists if the email is taken
	Register(ctx context.Context, username string, email string, password string) (models.TokenPair, models.User, error)

	// Login with email and password
	// Has to return apperrors.ErrInvalidCredentials for unknown email and
	// for wrong password, no telling which
	Login(ctx context.Context, email string, password string) (models.TokenPair, models.User, error)

	// Revoke the user's stored refresh token
	Logout(ctx context.Context, userID uuid.UUID) error

	// Mint a new access token for a valid, still-stored refresh token
	Refresh(ctx context.Context, refreshValue string) (models.IssuedToken, error)

	// Verify an access token and resolve its user
	Authenticate(ctx context.Context, accessValue string) (models.User, error)
}

type userService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
