package handlers

import (
	"errors"
	"net/http"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/handlers/render"
)

// appError is the single place the error taxonomy crosses into HTTP.
// Unknown errors always degrade to a generic 500: no internals leak out
func appError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrPasswordMismatch),
		errors.Is(err, apperrors.ErrInvalidCurrentPassword),
		errors.Is(err, apperrors.ErrPasswordUnchanged):
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrTokenInvalid),
		errors.Is(err, apperrors.ErrRefreshTokenMismatch):
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
	default:
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
