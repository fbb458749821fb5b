package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/handlers"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/repository/postgres"
	"github.com/nkiryanov/authd/internal/service/auth"
	"github.com/nkiryanov/authd/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/authd/internal/service/user"
	"github.com/nkiryanov/authd/internal/testutil"
)

// Signing secrets the harness server runs with. Tests that need to mint
// their own tokens build a token manager from the same values.
const (
	AccessSecret  = "integration-access-secret"
	RefreshSecret = "integration-refresh-secret"
)

type Services struct {
	AuthService  *auth.AuthService
	UserService  *user.UserService
	TokenManager *tokenmanager.TokenManager
}

// Create db transaction and run the full router in it (one connection cause
// one transaction). The transaction is passed to the inner function: you can
// safely use testutil.WithTx with it for nested savepoints.
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  AccessSecret,
			RefreshSecret: RefreshSecret,
		})
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error")

		us := user.NewService(storage)

		router := handlers.NewRouter(as, us, dbpool, logger.NewNoOp())

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:  as,
			UserService:  us,
			TokenManager: tokenManager,
		})
	})
}
