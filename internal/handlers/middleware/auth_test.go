package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/handlers/userctx"
	"github.com/mkuznetsov/reconcilo/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, r *http.Request) (models.User, error)

func (f authFunc) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	return f(ctx, r)
}

func TestAuthMiddleware(t *testing.T) {
	// Simple handler that tries to get user from context
	// If ok writes its email to response
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set user or reject
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Email))
		require.NoError(t, err, "should write email to response")
	})

	t.Run("auth ok", func(t *testing.T) {
		// Middleware that always returns ok
		middleware := AuthMiddleware(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
			return models.User{Email: "a@x.com"}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", string(body))
		require.Equal(t, "a@x.com", string(body), "should return email in response")
	})

	tests := []struct {
		name string
		err  error
	}{
		{"invalid token", apperrors.ErrTokenInvalid},
		{"user gone", apperrors.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run("reject on "+tt.name, func(t *testing.T) {
			middleware := AuthMiddleware(authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
				return models.User{}, tt.err
			}))

			srv := httptest.NewServer(middleware(handler))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/test")
			require.NoError(t, err, "should make request to test server")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "should read response body")
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "every failure must look the same. Resp: %s", string(body))
			require.JSONEq(t,
				`{
					"error": "service_error",
					"message": "Unauthorized"
				}`,
				string(body),
			)
		})
	}
}
