package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/reconcilo/internal/handlers"
	"github.com/mkuznetsov/reconcilo/internal/handlers/middleware"
	"github.com/mkuznetsov/reconcilo/internal/logger"
	"github.com/mkuznetsov/reconcilo/internal/repository/postgres"
	"github.com/mkuznetsov/reconcilo/internal/service/auth"
	"github.com/mkuznetsov/reconcilo/internal/service/auth/tokenmanager"
	"github.com/mkuznetsov/reconcilo/internal/service/matcher"
	"github.com/mkuznetsov/reconcilo/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
}

// RunTx starts the full router over a db transaction and rolls it back when
// the test stops, so the database stays clean between tests
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, s Services)) {
	t.Helper()

	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			PrivateKeyPEM: testutil.ES256KeyPEM(t),
		})
		require.NoError(t, err, "token manager should be created without errors")

		authService, err := auth.NewService(auth.Config{}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error")

		// The matcher is not exercised by auth tests, any address will do
		matcherClient := matcher.NewClient("http://127.0.0.1:1", logger.NewNoOpLogger())

		mux := handlers.NewRouter(
			handlers.NewAuth(authService),
			handlers.NewUser(authService),
			handlers.NewRecon(matcherClient),
			middleware.AuthMiddleware(authService),
			middleware.LoggerMiddleware(logger.NewNoOpLogger()),
		)

		srv := httptest.NewServer(mux)
		defer srv.Close()

		fn(srv.URL, Services{AuthService: authService})
	})
}
