// Package cli provides common CLI initialization utilities shared by the
// binaries under cmd/.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"supcal/internal/adapters"
	"supcal/internal/config"
	applog "supcal/internal/log"
	"supcal/internal/records"
)

// SetupLogger installs the process logger from LOG_LEVEL and LOG_FORMAT.
// Unknown values fall back to info and text with a warning.
func SetupLogger(component string) *applog.Logger {
	level, levelErr := applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	format, formatErr := applog.ParseFormat(os.Getenv("LOG_FORMAT"))

	logger := applog.New(applog.Config{
		Level:     level,
		Format:    format,
		Component: component,
		Writer:    os.Stdout,
	})
	applog.SetDefault(logger)

	if levelErr != nil {
		logger.Warn("Unknown LOG_LEVEL, using info", "error", levelErr)
	}
	if formatErr != nil {
		logger.Warn("Unknown LOG_FORMAT, using text", "error", formatErr)
	}
	return logger
}

// LoadEnvFile reads .env from the working directory when present.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig returns the validated configuration. Any failure
// is logged and ends the process.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the configured backend or exits the process on failure.
func InitStore(logger *applog.Logger, cfg *config.Config) records.Store {
	store, err := adapters.OpenStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return store
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup under a context bounded by timeout. done closes once
// cleanup has returned.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until a signal arrived and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

