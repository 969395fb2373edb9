package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	PasswordHash   string
	CompanyName    string
	FirstName      string
	LastName       string
	PhoneNumber    string
	ProfilePicture string
	Role           string
	IsVerified     bool

	// Single currently valid refresh token, nil if logged out.
	// Issuing a new pair overwrites it and invalidates the previous session
	RefreshToken *string
}

// ProfilePatch carries optional profile updates. Nil fields are left as is
type ProfilePatch struct {
	FirstName      *string
	LastName       *string
	CompanyName    *string
	PhoneNumber    *string
	ProfilePicture *string
}
