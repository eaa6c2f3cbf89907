package middleware

import (
	"crypto/subtle"

	"classbank/internal/errors"
	"classbank/internal/handlers"

	"github.com/labstack/echo/v4"
)

// RequireCronSecret secures scheduler-triggered endpoints. Requests must
// carry the shared secret as a bearer token; user JWTs are not accepted.
func RequireCronSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return handlers.SendError(c, errors.AuthMissingToken, errors.WithDetails("Scheduler endpoints are disabled"))
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return handlers.SendError(c, errors.AuthMissingToken)
			}

			token, err := extractBearerToken(authHeader)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				return handlers.SendError(c, errors.AuthInsufficientPermission)
			}

			return next(c)
		}
	}
}
