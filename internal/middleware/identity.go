package middleware

import "github.com/labstack/echo/v4"

const (
	userIDKey   = "user_id"
	platformKey = "platform"
)

// UserID returns the authenticated user id, or "" on unauthenticated
// routes.
func UserID(c echo.Context) string {
	s, _ := c.Get(userIDKey).(string)
	return s
}

// Platform returns the host platform the token was issued for.
func Platform(c echo.Context) string {
	s, _ := c.Get(platformKey).(string)
	return s
}

// keyUser is the identity used in cache and rate limit keys.
func keyUser(c echo.Context) string {
	if uid := UserID(c); uid != "" {
		return uid
	}
	return "anon"
}
