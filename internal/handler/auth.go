package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pulse-workout-sessions/internal/config"
	"github.com/iliyamo/pulse-workout-sessions/internal/middleware"
	"github.com/iliyamo/pulse-workout-sessions/internal/utils"
)

// AuthHandler issues development tokens.  Real tokens come from the
// platform login service and carry the same claims.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler { return &AuthHandler{Cfg: cfg} }

type devTokenReq struct {
	UserID   string `json:"userId"`
	Platform string `json:"platform"`
}

// DevToken handles POST /v1/auth/dev-token.  It is only routed when
// APP_ENV is dev.
func (h *AuthHandler) DevToken(c echo.Context) error {
	var req devTokenReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId required"})
	}
	switch req.Platform {
	case "":
		req.Platform = middleware.PlatformWeChat
	case middleware.PlatformWeChat, middleware.PlatformBaidu:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported platform"})
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.UserID, req.Platform, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"access": tok})
}
