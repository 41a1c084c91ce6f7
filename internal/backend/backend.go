// Package backend builds the store and event publisher selected by configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/expensetracker/internal/config"
	"github.com/mmynk/expensetracker/internal/events"
	"github.com/mmynk/expensetracker/internal/storage"
	"github.com/mmynk/expensetracker/internal/storage/postgres"
	"github.com/mmynk/expensetracker/internal/storage/sqlite"
)

// OpenStore opens the storage backend named by cfg.DataBackend.
func OpenStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		logger.Info("Storage initialized", "backend", cfg.DataBackend, "database", cfg.DBPath)
		return store, nil
	case config.BackendPostgres:
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres storage: %w", err)
		}
		logger.Info("Storage initialized", "backend", cfg.DataBackend)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// Publisher is an event publisher plus the function that releases it.
type Publisher struct {
	events.Publisher
	Close func() error
}

// OpenPublisher connects to AMQP when configured. Without AMQP_URL, or when
// the broker is unreachable, events are discarded and the service keeps running.
func OpenPublisher(cfg *config.Config, logger *slog.Logger) Publisher {
	noop := Publisher{Publisher: events.NoopPublisher{}, Close: func() error { return nil }}
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, expense events will not be published")
		return noop
	}

	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		return noop
	}

	logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return Publisher{Publisher: p, Close: p.Close}
}
