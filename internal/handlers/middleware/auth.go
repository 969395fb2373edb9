package middleware

import (
	"context"
	"net/http"

	"github.com/mkuznetsov/reconcilo/internal/handlers/render"
	"github.com/mkuznetsov/reconcilo/internal/handlers/userctx"
	"github.com/mkuznetsov/reconcilo/internal/models"
)

type authService interface {
	// Return the user for an authenticated request or an error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware gates requests on a valid access token cookie.
// Terminal on first failure: the client never learns whether the cookie was
// missing, invalid, expired or the user gone. No implicit refresh happens
// here, an expired access token fails even with a valid refresh cookie
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
