package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/models"
	"github.com/mkuznetsov/reconcilo/internal/repository"
	"github.com/mkuznetsov/reconcilo/internal/service/auth/tokenmanager"
)

const defaultRepoTimeout = 3 * time.Second

type Config struct {
	// Hasher to use during registration or login
	// Bcrypt hasher is used if not set
	Hasher PasswordHasher

	// Mark auth cookies Secure. Should be on everywhere except local dev
	SecureCookies bool

	// Bound on every repository call
	RepoTimeout time.Duration
}

// TokenManager issues and verifies signed token pairs
type TokenManager interface {
	IssuePair(user models.User, family uuid.UUID) (models.TokenPair, error)
	ParseAccess(access string) (tokenmanager.Claims, error)
	ParseRefresh(refresh string) (tokenmanager.Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// Auth service
// Sole owner of the credential business rules: everything mutating a user
// record goes through here
type AuthService struct {
	token   TokenManager
	hasher  PasswordHasher
	storage repository.Storage

	secureCookies bool
	repoTimeout   time.Duration

	// Hash compared against when the user does not exist, so a login
	// attempt takes the same time whether the email is known or not
	dummyHash string
}

func NewService(cfg Config, token TokenManager, storage repository.Storage) (*AuthService, error) {
	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = NewBcryptHasher()
	}

	if cfg.RepoTimeout == 0 {
		cfg.RepoTimeout = defaultRepoTimeout
	}

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error while preparing dummy hash. Err: %w", err)
	}

	return &AuthService{
		token:         token,
		hasher:        hasher,
		storage:       storage,
		secureCookies: cfg.SecureCookies,
		repoTimeout:   cfg.RepoTimeout,
		dummyHash:     dummyHash,
	}, nil
}

type AuthResult struct {
	User models.User
	Pair models.TokenPair
}

func (s *AuthService) Signup(ctx context.Context, email string, password string, companyName string) (AuthResult, error) {
	var result AuthResult

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return result, fmt.Errorf("can't use this as password, error=%w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// Uniqueness is enforced by the insert itself, no check-then-act gap
	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		CompanyName:  companyName,
	})
	if err != nil {
		return result, err
	}

	if user.ID == uuid.Nil {
		return result, errors.New("created user has no id, insert is broken")
	}

	pair, user, err := s.rotatePair(ctx, s.storage, user, uuid.New())
	if err != nil {
		return result, err
	}

	return AuthResult{User: user, Pair: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (AuthResult, error) {
	var result AuthResult

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, lookupErr := s.storage.User().GetUserByEmail(ctx, email)

	// Always burn one hash comparison: unknown email and wrong password
	// must be indistinguishable by latency and by outcome
	hash := user.PasswordHash
	if lookupErr != nil {
		hash = s.dummyHash
	}
	compareErr := s.hasher.Compare(hash, password)

	switch {
	case lookupErr != nil && errors.Is(lookupErr, apperrors.ErrUserNotFound):
		return result, apperrors.ErrInvalidCredentials
	case lookupErr != nil:
		return result, lookupErr
	case compareErr != nil:
		return result, apperrors.ErrInvalidCredentials
	}

	// Rotation: any previously issued refresh token for this user dies here.
	// A token-less user (signup that failed after insert) logs in fine
	pair, user, err := s.rotatePair(ctx, s.storage, user, uuid.New())
	if err != nil {
		return result, err
	}

	return AuthResult{User: user, Pair: pair}, nil
}

// RefreshPair exchanges a valid refresh token for a new pair.
// A token that verifies but is not the stored one means a rotated-out family
// member is being replayed: the stored token is revoked and the whole
// session has to authenticate from scratch
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (AuthResult, error) {
	var result AuthResult

	claims, err := s.token.ParseRefresh(refresh)
	if err != nil {
		return result, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		user, err := tx.User().GetUserByID(ctx, claims.UserID)
		if err != nil {
			return err
		}

		if user.RefreshToken == nil || *user.RefreshToken != refresh {
			return apperrors.ErrRefreshTokenMismatch
		}

		pair, user, err := s.rotatePair(ctx, tx, user, claims.Family)
		if err != nil {
			return err
		}

		result = AuthResult{User: user, Pair: pair}
		return nil
	})

	if errors.Is(err, apperrors.ErrRefreshTokenMismatch) {
		// Possible reuse: kill the live session too. Done outside the
		// transaction, the rollback must not undo the revocation
		if _, revokeErr := s.storage.User().UpdateRefreshToken(ctx, claims.UserID, nil); revokeErr != nil {
			return AuthResult{}, revokeErr
		}
		return AuthResult{}, err
	}
	if err != nil {
		return AuthResult{}, err
	}

	return result, nil
}

// ValidateUser loads the current user record for the email.
// Called on every authenticated request, so deleting an account or changing
// a role takes effect immediately instead of when the token expires
func (s *AuthService) ValidateUser(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.storage.User().GetUserByEmail(ctx, email)
}

func (s *AuthService) UpdateProfile(ctx context.Context, email string, patch models.ProfilePatch) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.storage.User().UpdateProfile(ctx, email, patch)
}

func (s *AuthService) ChangePassword(ctx context.Context, email string, current string, newPassword string, confirm string) error {
	if newPassword != confirm {
		return apperrors.ErrPasswordMismatch
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return apperrors.ErrInvalidCurrentPassword
	}

	if err := s.hasher.Compare(user.PasswordHash, newPassword); err == nil {
		return apperrors.ErrPasswordUnchanged
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	_, err = s.storage.User().UpdatePassword(ctx, email, hash)
	return err
}

// Logout drops the stored refresh token, so nothing can be refreshed anymore
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.storage.User().UpdateRefreshToken(ctx, userID, nil)
	return err
}

// rotatePair issues a fresh token pair and overwrites the stored refresh
// token. Last writer wins on concurrent logins: the single active session
// model, not a bug to fix
func (s *AuthService) rotatePair(ctx context.Context, storage repository.Storage, user models.User, family uuid.UUID) (models.TokenPair, models.User, error) {
	pair, err := s.token.IssuePair(user, family)
	if err != nil {
		return pair, user, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	user, err = storage.User().UpdateRefreshToken(ctx, user.ID, &pair.Refresh.Value)
	if err != nil {
		return pair, user, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return pair, user, nil
}

func (s *AuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.repoTimeout)
}
