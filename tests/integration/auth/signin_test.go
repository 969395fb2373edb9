package auth

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkuznetsov/reconcilo/internal/testutil"
	"github.com/mkuznetsov/reconcilo/tests/integration"
)

const SigninURL = "/signin"

func Test_Signin(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	signup := func(t *testing.T, srvURL string) {
		data := `{"email": "a@x.com", "password": "Secret1!", "companyName": "Acme"}`
		resp, err := http.Post(srvURL+SignupURL, "application/json", strings.NewReader(data))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	t.Run("signin rotates cookies", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			signup(t, srvURL)

			data := `{"email": "a@x.com", "password": "Secret1!"}`
			resp, err := http.Post(srvURL+SigninURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Equal(t, 2, len(resp.Cookies()), "signin should set both token cookies")
		})
	})

	t.Run("wrong password twice leaves stored token alone", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			signup(t, srvURL)

			before, err := s.AuthService.ValidateUser(t.Context(), "a@x.com")
			require.NoError(t, err)
			require.NotNil(t, before.RefreshToken)

			for range 2 {
				data := `{"email": "a@x.com", "password": "WrongPassword1!"}`
				resp, err := http.Post(srvURL+SigninURL, "application/json", strings.NewReader(data))
				require.NoError(t, err)
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				_ = resp.Body.Close()

				require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "Invalid email or password"
					}`, string(body))
				require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on signin error")

				after, err := s.AuthService.ValidateUser(t.Context(), "a@x.com")
				require.NoError(t, err)
				require.NotNil(t, after.RefreshToken)
				require.Equal(t, *before.RefreshToken, *after.RefreshToken, "failed signin must not rotate the stored token")
			}
		})
	})

	t.Run("unknown email gets the same answer as wrong password", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, _ integration.Services) {
			data := `{"email": "nobody@x.com", "password": "Secret1!"}`
			resp, err := http.Post(srvURL+SigninURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid email or password"
				}`, string(body))
		})
	})
}
