package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Host platforms a token can be issued for.
const (
	PlatformWeChat = "wx"
	PlatformBaidu  = "swan"
)

// RequirePlatform rejects requests whose token was not issued for one of
// platforms.  It must run after JWTAuth.
func RequirePlatform(platforms ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		allowed[p] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Platform(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "unsupported platform"})
			}
			return next(c)
		}
	}
}
