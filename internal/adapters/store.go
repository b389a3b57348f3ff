// Package adapters turns configuration into the concrete backends behind the
// record ports.
package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"supcal/internal/amqp"
	"supcal/internal/config"
	"supcal/internal/records"
	"supcal/internal/records/memory"
	"supcal/internal/services"
	"supcal/internal/storage"
)

// Pinger is implemented by backends that hold a connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpenStore opens the backend selected by DATA_BACKEND. SQL backends are
// migrated before they are returned.
func OpenStore(cfg *config.Config) (records.Store, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		slog.Info("Initialized memory backend", "backend", cfg.DataBackend)
		return memory.New(), nil
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		slog.Info("Initialized SQLite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
		return repo, nil
	case config.BackendPostgres:
		repo, err := storage.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres backend: %w", err)
		}
		slog.Info("Initialized PostgreSQL backend", "backend", cfg.DataBackend)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// Ping checks the store when it supports it. Memory stores are always healthy.
func Ping(ctx context.Context, store records.Store) error {
	if p, ok := store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// OpenPublisher connects to the broker when AMQP_URL is set. Without a URL it
// returns a nil publisher, and record changes are not broadcast.
func OpenPublisher(cfg *config.Config) (services.EventPublisher, func() error, error) {
	if cfg.AMQPURL == "" {
		slog.Info("AMQP_URL not set, record events disabled")
		return nil, func() error { return nil }, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	slog.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client.Close, nil
}
