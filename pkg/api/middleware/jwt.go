package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/getflash/salesops/pkg/api/errors"
	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/models"
)

const actorContextKey = "actor"

// JWTMiddleware validates the bearer token and stores the acting user
// on the request context. When a blacklist is given, revoked tokens are
// rejected too.
func JWTMiddleware(secret string, blacklist *auth.TokenBlacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return errors.UnauthorizedError(c)
			}
			token := strings.TrimPrefix(header, "Bearer ")

			claims, err := auth.ValidateJWTWithBlacklist(c.Request().Context(), token, secret, blacklist)
			if err != nil {
				return errors.UnauthorizedError(c)
			}

			c.Set(actorContextKey, models.Actor{
				ID:       claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			})
			c.Set("token", token)
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated actor stored by JWTMiddleware.
func ActorFrom(c echo.Context) (models.Actor, bool) {
	actor, ok := c.Get(actorContextKey).(models.Actor)
	return actor, ok
}

// TokenFrom returns the raw bearer token stored by JWTMiddleware.
func TokenFrom(c echo.Context) string {
	token, _ := c.Get("token").(string)
	return token
}
