package web

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sandevgo/piichat/internal/config"
)

// basicAuth gates everything except health and metrics.
func basicAuth(auth *config.AuthConfig) echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: "piichat",
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/metrics":
				return true
			}
			return false
		},
		Validator: func(username, password string, c echo.Context) (bool, error) {
			userOK := subtle.ConstantTimeCompare([]byte(username), []byte(auth.Username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(password), []byte(auth.Password)) == 1
			return userOK && passOK, nil
		},
	})
}
