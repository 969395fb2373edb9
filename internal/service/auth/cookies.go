package auth

import (
	"context"
	"net/http"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/models"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// SetTokens delivers both tokens as httpOnly strict cookies.
// MaxAge follows the token TTL, so the browser drops the cookie roughly
// when the token stops being valid anyway
func (s *AuthService) SetTokens(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, s.cookie(accessCookieName, pair.Access.Value, int(s.token.AccessTTL().Seconds())))
	http.SetCookie(w, s.cookie(refreshCookieName, pair.Refresh.Value, int(s.token.RefreshTTL().Seconds())))
}

func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(accessCookieName, "", -1))
	http.SetCookie(w, s.cookie(refreshCookieName, "", -1))
}

// ReadRefreshToken returns the refresh token cookie value if present
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", apperrors.ErrTokenInvalid
	}
	return cookie.Value, nil
}

// Auth is the middleware entry point: access cookie only, never the
// Authorization header and never an implicit refresh. The user is looked up
// live so revocation takes effect on the next request
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	cookie, err := r.Cookie(accessCookieName)
	if err != nil {
		return models.User{}, apperrors.ErrTokenInvalid
	}

	claims, err := s.token.ParseAccess(cookie.Value)
	if err != nil {
		return models.User{}, err
	}

	return s.ValidateUser(ctx, claims.Email)
}

func (s *AuthService) cookie(name string, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
