package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/pulse-workout-sessions/internal/config"
	"github.com/iliyamo/pulse-workout-sessions/internal/handler"
	"github.com/iliyamo/pulse-workout-sessions/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the dev token endpoint outside of production.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, env string) {
	if env != "dev" {
		return
	}
	e.POST("/v1/auth/dev-token", a.DevToken)
}

// RegisterAPI registers the authenticated workout and session endpoints.
// rdb may be nil, which disables the response cache and rate limiter.
func RegisterAPI(e *echo.Echo, s *handler.SessionHandler, w *handler.WorkoutHandler, jwtSecret string, rdb *redis.Client) {
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequirePlatform(middleware.PlatformWeChat, middleware.PlatformBaidu))
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheCfg := config.LoadCacheConfig()
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	// Writes to the caller's aggregates make cached workout details stale.
	invalidate := middleware.NewCacheInvalidator(cacheCfg, rdb)

	v1.GET("/workouts/:id", w.Get, cache)
	v1.POST("/workouts/:id/view", w.View, invalidate)
	v1.POST("/workouts/:id/sessions", s.Start, invalidate)
	v1.POST("/workouts/:id/start", w.LegacyStart)
	v1.POST("/workouts/:id/finish", w.LegacyFinish, invalidate)

	v1.GET("/sessions/unfinished", s.Unfinished)
	v1.POST("/sessions/:id/touch", s.Touch)
	v1.PUT("/sessions/:id/playhead", s.UpdatePlayhead)
	v1.POST("/sessions/:id/finish", s.Finish, invalidate)

	v1.GET("/me/workouts/viewed", w.Viewed)
	v1.GET("/me/workouts/finished", w.Finished)
	v1.GET("/me/history", w.History)
}
