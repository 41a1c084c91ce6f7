// Command notifier consumes expense events from AMQP and logs each one.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/expensetracker/internal/config"
	"github.com/mmynk/expensetracker/internal/events"
	"github.com/mmynk/expensetracker/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	consumer, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = consumer.Consume(ctx, logEvent(logger))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Notifier stopped")
}

// logEvent returns a handler that writes one log line per expense event.
func logEvent(logger *slog.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		logger.InfoContext(ctx, "Expense event",
			"type", e.Type,
			"expense_id", e.ExpenseID,
			"user_id", e.UserID,
			"message", e.Message,
			"timestamp", e.Timestamp)
		return nil
	}
}
