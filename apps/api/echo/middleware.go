package echoapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")

// tokenAuthMiddleware gates the API behind one static operator token. There
// is no user model here: every caller is an administrator or nothing.
func tokenAuthMiddleware(token string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, ctx echo.Context) (bool, error) {
			if token == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(err error, ctx echo.Context) error {
			return errInvalidToken
		},
	})
}
