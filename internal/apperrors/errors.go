package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Login failures are never split into "no such user" and "wrong password"
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrPasswordMismatch       = errors.New("password confirmation does not match")
	ErrInvalidCurrentPassword = errors.New("current password is invalid")
	ErrPasswordUnchanged      = errors.New("new password must differ from the current one")

	// Any token failure (bad signature, wrong alg, expired, malformed)
	// collapses to this single error
	ErrTokenInvalid = errors.New("token is invalid")

	// Presented refresh token verifies but is not the stored one:
	// a rotated-out token is being replayed
	ErrRefreshTokenMismatch = errors.New("refresh token does not match the stored one")
)
