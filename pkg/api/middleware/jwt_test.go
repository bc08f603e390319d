package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/auth"
)

const testSecret = "test-secret"

func newProtectedEcho() *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, actor.Username)
	}, JWTMiddleware(testSecret, nil))
	return e
}

func request(e *echo.Echo, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	e := newProtectedEcho()

	token, err := auth.GenerateJWT("u1", "jdoe", auth.RoleRep, testSecret, 1)
	require.NoError(t, err)

	rec := request(e, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe", rec.Body.String())
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	e := newProtectedEcho()

	rec := request(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	e := newProtectedEcho()

	token, err := auth.GenerateJWT("u1", "jdoe", auth.RoleRep, testSecret, 1)
	require.NoError(t, err)

	rec := request(e, token) // no Bearer prefix
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareRejectsBadSignature(t *testing.T) {
	e := newProtectedEcho()

	token, err := auth.GenerateJWT("u1", "jdoe", auth.RoleRep, "other-secret", 1)
	require.NoError(t, err)

	rec := request(e, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
