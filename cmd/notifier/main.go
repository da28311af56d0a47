package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/pulse-workout-sessions/internal/config"
	"github.com/iliyamo/pulse-workout-sessions/internal/queue"
)

// The notifier consumes staff and user-activity events from RabbitMQ and
// forwards them to the configured webhooks.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: .env not loaded: %v", err)
	}
	cfg := config.LoadNotifierConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fwd := &queue.Forwarder{
		StaffURL:    cfg.StaffWebhookURL,
		ActivityURL: cfg.ActivityWebhookURL,
		LogDir:      cfg.LogDir,
		Client:      &http.Client{Timeout: cfg.Timeout},
	}
	log.Printf("notify-consumer: starting")
	if err := queue.StartConsumer(ctx, queue.BrokerURL(), fwd.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("notify-consumer: %v", err)
	}
	log.Printf("notify-consumer: stopped")
}
