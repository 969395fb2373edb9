package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/mkuznetsov/reconcilo/internal/models"
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	CompanyName  string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Overwrite the stored refresh token. Nil clears it (logout)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) (models.User, error)

	// Apply non-nil patch fields and return the updated record
	UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (models.User, error)

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, email string, passwordHash string) (models.User, error)
}

// Storage groups repositories working over the same connection or transaction
type Storage interface {
	User() UserRepo

	// Run fn within a database transaction
	InTx(ctx context.Context, fn func(s Storage) error) error
}
