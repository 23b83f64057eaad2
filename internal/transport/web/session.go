package web

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	sessionCookieName = "piichat_session"
	sessionContextKey = "session_id"
	sessionMaxAge     = 30 * 24 * 60 * 60
)

// sessionCookie assigns every browser a conversation of its own.
func sessionCookie() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ""
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   sessionMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteStrictMode,
				})
			}
			c.Set(sessionContextKey, "web-"+id)
			return next(c)
		}
	}
}

func sessionID(c echo.Context) string {
	id, _ := c.Get(sessionContextKey).(string)
	return id
}
