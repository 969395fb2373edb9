package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/models"
	"github.com/mkuznetsov/reconcilo/internal/repository"
)

const userColumns = `id, created_at, email, password_hash, company_name, first_name, last_name, phone_number, profile_picture, role, is_verified, refresh_token`

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, email, password_hash, company_name)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), arg.Email, arg.PasswordHash, arg.CompanyName)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + `
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	return collectUser(rows)
}

const updateRefreshToken = `-- name: UpdateRefreshToken
UPDATE users
SET refresh_token = $2
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateRefreshToken, id, token)
	return collectUser(rows)
}

const updateProfile = `-- name: UpdateProfile
UPDATE users
SET first_name      = COALESCE($2, first_name),
    last_name       = COALESCE($3, last_name),
    company_name    = COALESCE($4, company_name),
    phone_number    = COALESCE($5, phone_number),
    profile_picture = COALESCE($6, profile_picture)
WHERE email = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateProfile, email,
		patch.FirstName,
		patch.LastName,
		patch.CompanyName,
		patch.PhoneNumber,
		patch.ProfilePicture,
	)
	return collectUser(rows)
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2
WHERE email = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdatePassword(ctx context.Context, email string, passwordHash string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updatePassword, email, passwordHash)
	return collectUser(rows)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.CreatedAt,
		&u.Email,
		&u.PasswordHash,
		&u.CompanyName,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&u.ProfilePicture,
		&u.Role,
		&u.IsVerified,
		&u.RefreshToken,
	)
	return u, err
}
