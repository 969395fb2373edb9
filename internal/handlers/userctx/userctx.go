package userctx

import (
	"context"

	"github.com/mkuznetsov/reconcilo/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Create a new context with the authenticated principal
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the principal from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}
