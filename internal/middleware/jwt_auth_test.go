package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/apperror"
	"github.com/anonto42/nano-social/backend/internal/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", 5*time.Minute, time.Hour)
}

func run(t *testing.T, mw echo.MiddlewareFunc, header string) (uint, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var (
		id     uint
		authed bool
	)
	err := mw(func(c echo.Context) error {
		id, authed = CurrentUserID(c)
		return nil
	})(c)
	return id, authed, err
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode())
}

func TestJWTAuthMiddleware(t *testing.T) {
	issuer := newIssuer()
	pair, err := issuer.IssuePair(3)
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		id, ok, err := run(t, JWTAuthMiddleware(issuer), "Bearer "+pair.Access)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint(3), id)
	})

	t.Run("missing header", func(t *testing.T) {
		_, _, err := run(t, JWTAuthMiddleware(issuer), "")
		assertUnauthorized(t, err)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		_, _, err := run(t, JWTAuthMiddleware(issuer), "Bearer "+pair.Refresh)
		assertUnauthorized(t, err)
	})

	t.Run("bad scheme", func(t *testing.T) {
		_, _, err := run(t, JWTAuthMiddleware(issuer), "Token "+pair.Access)
		assertUnauthorized(t, err)
	})
}

func TestOptionalJWTAuth(t *testing.T) {
	issuer := newIssuer()
	pair, err := issuer.IssuePair(8)
	require.NoError(t, err)

	id, ok, err := run(t, OptionalJWTAuth(issuer), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)

	id, ok, err = run(t, OptionalJWTAuth(issuer), "Bearer "+pair.Access)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(8), id)

	_, _, err = run(t, OptionalJWTAuth(issuer), "Bearer not-a-token")
	assertUnauthorized(t, err)
}
