package main

import (
	"context"
	"errors"
	"os"
	"time"

	"supcal/internal/amqp"
	"supcal/internal/cli"
	"supcal/internal/config"
	gsheet "supcal/internal/sheets/google"
	"supcal/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("supcal-worker")
	logger.Info("Starting supcal-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == config.BackendMemory {
		logger.Error("The worker reads the shared store; DATA_BACKEND=memory is not supported")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" || cfg.GoogleSpreadsheetID == "" {
		logger.Error("AMQP_URL and GOOGLE_SPREADSHEET_ID are required by the mirror worker")
		os.Exit(1)
	}

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	mirror, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	mirrorWorker := worker.NewMirrorWorker(store, mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	})

	// Catch up on events published while the worker was down.
	if _, err := mirrorWorker.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", "error", err)
	}

	go func() {
		err := amqpClient.ConsumeRecordEvents(ctx, mirrorWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption stopped", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Consuming record events", "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
