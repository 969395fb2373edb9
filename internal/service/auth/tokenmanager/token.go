package tokenmanager

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Only ES256 signed tokens are accepted
var signingMethod = jwt.SigningMethodES256

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`

	// Token family: shared by every pair rotated from the same login session.
	// Set on refresh tokens only
	Family uuid.UUID `json:"fam"`
}

// Token manager with sensible defaults
type Config struct {
	// ECDSA P-256 private key in PEM format
	// Required to be set
	PrivateKeyPEM []byte

	// Access and refresh token lifetimes
	// If not set then defaults are used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	// Key pair to sign and verify tokens
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New parses the signing key and fails fast on misconfiguration,
// so a broken key is a startup error and never a request time one
func New(cfg Config) (*TokenManager, error) {
	if len(cfg.PrivateKeyPEM) == 0 {
		return nil, errors.New("private key must not be empty")
	}

	privateKey, err := jwt.ParseECPrivateKeyFromPEM(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("error while parsing EC private key. Err: %w", err)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (m *TokenManager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssuePair signs a new access and refresh token for the user.
// Nothing is persisted here: storing the refresh token is the caller's job
func (m *TokenManager) IssuePair(user models.User, family uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	access, err := m.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
		},
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := m.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
		},
		UserID: user.ID,
		Email:  user.Email,
		Family: family,
	})
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Parse and validate access token
// Every failure collapses to apperrors.ErrTokenInvalid: callers must not
// be able to tell an expired token from a forged one
func (m *TokenManager) ParseAccess(access string) (Claims, error) {
	return m.parse(access)
}

// Parse and validate refresh token
func (m *TokenManager) ParseRefresh(refresh string) (Claims, error) {
	return m.parse(refresh)
}

func (m *TokenManager) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(signingMethod, claims).SignedString(m.privateKey)
}

func (m *TokenManager) parse(value string) (Claims, error) {
	claims := Claims{}

	token, err := jwt.ParseWithClaims(
		value,
		&claims,
		func(t *jwt.Token) (any, error) { return m.publicKey, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
	)
	if err != nil || !token.Valid {
		return Claims{}, apperrors.ErrTokenInvalid
	}

	return claims, nil
}
