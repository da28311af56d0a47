package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/pulse-workout-sessions/internal/catalog"
	"github.com/iliyamo/pulse-workout-sessions/internal/config"
	"github.com/iliyamo/pulse-workout-sessions/internal/database"
	"github.com/iliyamo/pulse-workout-sessions/internal/handler"
	"github.com/iliyamo/pulse-workout-sessions/internal/model"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
	"github.com/iliyamo/pulse-workout-sessions/internal/repository"
	"github.com/iliyamo/pulse-workout-sessions/internal/router"
	"github.com/iliyamo/pulse-workout-sessions/internal/rowstore"
	"github.com/iliyamo/pulse-workout-sessions/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: .env not loaded: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	workouts := repository.NewWorkoutRepo(store)
	if cfg.CatalogSeedPath != "" {
		seed, err := catalog.LoadSeed(cfg.CatalogSeedPath)
		if err != nil {
			log.Fatalf("seed: %v", err)
		}
		if err := seed.Apply(ctx, workouts, repository.NewTokenRepo(store), repository.NewUserRepo(store), time.Now()); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seed: applied %d workouts from %s", len(seed.Workouts), cfg.CatalogSeedPath)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var sender queue.Sender = queue.LogSender{}
	if cfg.NotifyEnabled {
		pub := queue.NewPublisher(queue.BrokerURL())
		defer pub.Close()
		sender = pub
	}
	notifier := queue.NewNotifier(sender, cfg.NotifyBuffer)

	svc := session.NewService(store, catalog.New(workouts, rdb, cfg.CatalogTTL), notifier)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("http: %s %s %d %s", v.Method, v.URIPath, v.Status, v.Latency)
			return nil
		},
	}))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg), cfg.Env)
	router.RegisterAPI(e, handler.NewSessionHandler(svc), handler.NewWorkoutHandler(svc), cfg.JWTSecret, rdb)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Printf("notifier drain: %v", err)
	}
}

// openStore returns the configured row store and its closer.
func openStore(ctx context.Context, cfg config.Config) (rowstore.Store, func()) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Printf("store: using in-memory row store; data is lost on exit")
		return rowstore.NewMemoryStore(), func() {}
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	store := rowstore.NewMySQLStore(db)
	if err := store.EnsureSchema(ctx, model.AllTables()...); err != nil {
		log.Fatalf("db schema: %v", err)
	}
	return store, func() { _ = db.Close() }
}
