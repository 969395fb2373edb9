package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/reconcilo/internal/apperrors"
	"github.com/mkuznetsov/reconcilo/internal/models"
	"github.com/mkuznetsov/reconcilo/internal/repository/postgres"
	"github.com/mkuznetsov/reconcilo/internal/service/auth/tokenmanager"
	"github.com/mkuznetsov/reconcilo/internal/testutil"
)

func Test_Auth(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, accessTTL time.Duration, refreshTTL time.Duration, t *testing.T, fn func(s *AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(tokenmanager.Config{
				PrivateKeyPEM: testutil.ES256KeyPEM(t),
				AccessTTL:     accessTTL,
				RefreshTTL:    refreshTTL,
			})
			require.NoError(t, err, "token manager should be created without errors")

			s, err := NewService(Config{}, tokenManager, storage)
			require.NoError(t, err, "auth service couldn't be started")

			fn(s)
		})
	}

	storedRefresh := func(t *testing.T, s *AuthService, email string) *string {
		user, err := s.storage.User().GetUserByEmail(t.Context(), email)
		require.NoError(t, err)
		return user.RefreshToken
	}

	t.Run("Signup", func(t *testing.T) {
		t.Run("new user ok and refresh persisted verbatim", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				result, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")

				require.NoError(t, err, "registering new user should be ok")
				require.Equal(t, "a@x.com", result.User.Email)
				require.Equal(t, "Acme", result.User.CompanyName)
				require.Equal(t, models.RoleUser, result.User.Role, "role should default to user")
				require.False(t, result.User.IsVerified)
				require.NotEmpty(t, result.Pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, result.Pair.Refresh.Value, "refresh token should not be empty")

				stored := storedRefresh(t, s, "a@x.com")
				require.NotNil(t, stored)
				require.Equal(t, result.Pair.Refresh.Value, *stored, "stored refresh token should be exactly the issued one")
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				_, err = s.Signup(t.Context(), "a@x.com", "other-password", "Evil Corp")

				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("rotation: two logins give two tokens, only last is stored", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				first, err := s.Login(t.Context(), "a@x.com", "Secret1!")
				require.NoError(t, err)
				second, err := s.Login(t.Context(), "a@x.com", "Secret1!")
				require.NoError(t, err)

				require.NotEqual(t, first.Pair.Refresh.Value, second.Pair.Refresh.Value, "each login must issue a fresh refresh token")

				stored := storedRefresh(t, s, "a@x.com")
				require.NotNil(t, stored)
				require.Equal(t, second.Pair.Refresh.Value, *stored, "only the last refresh token should stay valid")
			})
		})

		t.Run("token-less user can login", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				result, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				// Simulate a signup that died after the insert
				require.NoError(t, s.Logout(t.Context(), result.User.ID))
				require.Nil(t, storedRefresh(t, s, "a@x.com"))

				_, err = s.Login(t.Context(), "a@x.com", "Secret1!")
				require.NoError(t, err, "an orphaned token-less account must be able to login")
			})
		})

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{
				name:     "fail if wrong password",
				email:    "a@x.com",
				password: "wrong",
			},
			{
				name:     "fail if user not exists",
				email:    "nobody@x.com",
				password: "Secret1!",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
					signedUp, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
					require.NoError(t, err)

					_, err = s.Login(t.Context(), tt.email, tt.password)

					require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "failure cause must be uniform")

					stored := storedRefresh(t, s, "a@x.com")
					require.NotNil(t, stored)
					require.Equal(t, signedUp.Pair.Refresh.Value, *stored, "failed login must not touch the stored token")
				})
			})
		}
	})

	t.Run("RefreshPair", func(t *testing.T) {
		t.Run("rotates pair and storage", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				initial, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				rotated, err := s.RefreshPair(t.Context(), initial.Pair.Refresh.Value)

				require.NoError(t, err)
				require.NotEqual(t, initial.Pair.Access.Value, rotated.Pair.Access.Value, "new access token should be different")
				require.NotEqual(t, initial.Pair.Refresh.Value, rotated.Pair.Refresh.Value, "new refresh token should be different")

				stored := storedRefresh(t, s, "a@x.com")
				require.NotNil(t, stored)
				require.Equal(t, rotated.Pair.Refresh.Value, *stored)
			})
		})

		t.Run("replayed token kills the session", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				initial, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), initial.Pair.Refresh.Value)
				require.NoError(t, err)

				// Replay the rotated-out token
				_, err = s.RefreshPair(t.Context(), initial.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenMismatch)

				require.Nil(t, storedRefresh(t, s, "a@x.com"), "replay must revoke the live session too")
			})
		})

		t.Run("fail if expired", func(t *testing.T) {
			withTx(pg.Pool, time.Second, time.Second, t, func(s *AuthService) {
				initial, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				time.Sleep(1100 * time.Millisecond)

				_, err = s.RefreshPair(t.Context(), initial.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
			})
		})
	})

	t.Run("ChangePassword", func(t *testing.T) {
		tests := []struct {
			name        string
			current     string
			newPassword string
			confirm     string
			expectedErr error
		}{
			{
				name:        "fail if confirmation differs",
				current:     "Secret1!",
				newPassword: "NewSecret1!",
				confirm:     "Different1!",
				expectedErr: apperrors.ErrPasswordMismatch,
			},
			{
				name:        "fail if current wrong",
				current:     "wrong",
				newPassword: "NewSecret1!",
				confirm:     "NewSecret1!",
				expectedErr: apperrors.ErrInvalidCurrentPassword,
			},
			{
				name:        "fail if new equals current",
				current:     "Secret1!",
				newPassword: "Secret1!",
				confirm:     "Secret1!",
				expectedErr: apperrors.ErrPasswordUnchanged,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
					_, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
					require.NoError(t, err)

					err = s.ChangePassword(t.Context(), "a@x.com", tt.current, tt.newPassword, tt.confirm)

					require.ErrorIs(t, err, tt.expectedErr)
				})
			})
		}

		t.Run("success switches which password verifies", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
				require.NoError(t, err)

				err = s.ChangePassword(t.Context(), "a@x.com", "Secret1!", "NewSecret1!", "NewSecret1!")
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "a@x.com", "Secret1!")
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "old password must stop working")

				_, err = s.Login(t.Context(), "a@x.com", "NewSecret1!")
				require.NoError(t, err, "new password must work")
			})
		})
	})

	t.Run("ValidateUser", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
			_, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
			require.NoError(t, err)

			user, err := s.ValidateUser(t.Context(), "a@x.com")
			require.NoError(t, err)
			require.Equal(t, "a@x.com", user.Email)

			_, err = s.ValidateUser(t.Context(), "nobody@x.com")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
			_, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
			require.NoError(t, err)

			firstName := "Jane"
			phone := "+1-555-0100"
			user, err := s.UpdateProfile(t.Context(), "a@x.com", models.ProfilePatch{
				FirstName:   &firstName,
				PhoneNumber: &phone,
			})

			require.NoError(t, err)
			require.Equal(t, "Jane", user.FirstName)
			require.Equal(t, "+1-555-0100", user.PhoneNumber)
			require.Equal(t, "Acme", user.CompanyName, "untouched fields must stay")

			_, err = s.UpdateProfile(t.Context(), "nobody@x.com", models.ProfilePatch{FirstName: &firstName})
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("cookies", func(t *testing.T) {
		withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
			result, err := s.Signup(t.Context(), "a@x.com", "Secret1!", "Acme")
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			s.SetTokens(rec, result.Pair)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 2)

			byName := map[string]int{}
			for _, c := range cookies {
				byName[c.Name] = c.MaxAge
				require.True(t, c.HttpOnly, "auth cookies must be httpOnly")
				require.Equal(t, "/", c.Path)
				require.Equal(t, http.SameSiteStrictMode, c.SameSite)
			}
			require.InDelta(t, (15 * time.Minute).Seconds(), byName["accessToken"], 1)
			require.InDelta(t, (24 * time.Hour).Seconds(), byName["refreshToken"], 1)
		})
	})
}
