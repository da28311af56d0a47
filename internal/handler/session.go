package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pulse-workout-sessions/internal/middleware"
	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/session"
)

// SessionHandler serves the playback session endpoints.
type SessionHandler struct {
	Svc *session.Service
}

func NewSessionHandler(svc *session.Service) *SessionHandler { return &SessionHandler{Svc: svc} }

type startReq struct {
	StartType string `json:"startType"`
	SessionID string `json:"sessionId"`
}

type playheadReq struct {
	Playhead float64 `json:"playhead"`
}

type finishReq struct {
	WorkoutID     string `json:"workoutId"`
	StartActionID string `json:"startActionId"`
}

// Start handles POST /v1/workouts/:id/sessions.
func (h *SessionHandler) Start(c echo.Context) error {
	var req startReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.Start(ctx, middleware.UserID(c), c.Param("id"), model.StartType(req.StartType), req.SessionID)
	if err != nil {
		return fail(c, "startSession", err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Touch handles POST /v1/sessions/:id/touch.
func (h *SessionHandler) Touch(c echo.Context) error {
	var req playheadReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.Touch(ctx, middleware.UserID(c), c.Param("id"), req.Playhead)
	if err != nil {
		return fail(c, "touchSession", err)
	}
	return c.JSON(http.StatusOK, res)
}

// UpdatePlayhead handles PUT /v1/sessions/:id/playhead.
func (h *SessionHandler) UpdatePlayhead(c echo.Context) error {
	var req playheadReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Svc.UpdatePlayhead(ctx, middleware.UserID(c), c.Param("id"), req.Playhead); err != nil {
		return fail(c, "updatePlayhead", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Finish handles POST /v1/sessions/:id/finish.
func (h *SessionHandler) Finish(c echo.Context) error {
	var req finishReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.Finish(ctx, middleware.UserID(c), req.WorkoutID, c.Param("id"), req.StartActionID)
	if err != nil {
		return fail(c, "finishSession", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Unfinished handles GET /v1/sessions/unfinished.  204 means there is
// nothing to resume.
func (h *SessionHandler) Unfinished(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.CheckUnfinished(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, "checkUnfinishedSession", err)
	}
	if res == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, res)
}
