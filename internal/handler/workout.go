package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pulse-workout-sessions/internal/middleware"
	"github.com/iliyamo/pulse-workout-sessions/internal/session"
)

// WorkoutHandler serves workout pages, the legacy action-log endpoints and
// the user's workout lists.
type WorkoutHandler struct {
	Svc *session.Service
}

func NewWorkoutHandler(svc *session.Service) *WorkoutHandler { return &WorkoutHandler{Svc: svc} }

type viewReq struct {
	Token       string `json:"wToken"`
	ReferrerUID string `json:"referrerUid"`
	ReferrerGID string `json:"referrerGid"`
}

type legacyFinishReq struct {
	StartActionID string `json:"startActionId"`
	SessionID     string `json:"sessionId"`
}

// Get handles GET /v1/workouts/:id.
func (h *WorkoutHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.GetWorkout(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, "getWorkout", err)
	}
	return c.JSON(http.StatusOK, res)
}

// View handles POST /v1/workouts/:id/view.
func (h *WorkoutHandler) View(c echo.Context) error {
	var req viewReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.View(ctx, middleware.UserID(c), c.Param("id"), req.Token, req.ReferrerUID, req.ReferrerGID)
	if err != nil {
		return fail(c, "viewWorkout", err)
	}
	return c.JSON(http.StatusOK, res)
}

// LegacyStart handles POST /v1/workouts/:id/start.
func (h *WorkoutHandler) LegacyStart(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.StartWorkout(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return fail(c, "startWorkout", err)
	}
	return c.JSON(http.StatusCreated, res)
}

// LegacyFinish handles POST /v1/workouts/:id/finish.
func (h *WorkoutHandler) LegacyFinish(c echo.Context) error {
	var req legacyFinishReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Svc.FinishWorkout(ctx, middleware.UserID(c), c.Param("id"), req.StartActionID, req.SessionID)
	if err != nil {
		return fail(c, "finishWorkout", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Viewed handles GET /v1/me/workouts/viewed.
func (h *WorkoutHandler) Viewed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Svc.GetViewedWorkouts(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, "getViewedWorkouts", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"workouts": list})
}

// Finished handles GET /v1/me/workouts/finished.
func (h *WorkoutHandler) Finished(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Svc.GetFinishedWorkouts(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, "getFinishedWorkouts", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"workouts": list})
}

// History handles GET /v1/me/history.
func (h *WorkoutHandler) History(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	months, err := h.Svc.GetHistory(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, "getHistory", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"history": months})
}
