package main

import (
	"context"
	"os"
	"time"

	"supcal/internal/adapters"
	"supcal/internal/cli"
	"supcal/internal/notify/telegram"
	"supcal/internal/scheduler"
	"supcal/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("rollover-worker")
	logger.Info("Starting rollover-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	store := cli.InitStore(logger, cfg)
	defer store.Close()

	publisher, closePublisher, err := adapters.OpenPublisher(cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, rollovers will not be broadcast", "error", err)
		publisher, closePublisher = nil, func() error { return nil }
	}
	defer closePublisher()

	rollover := services.NewRolloverProcessor(store, publisher, cfg.RefreshWorkers)

	var reminders scheduler.Reminders
	if cfg.TelegramToken != "" {
		notifier, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("Failed to initialize Telegram notifier", "error", err)
			os.Exit(1)
		}
		dashboard := services.NewDashboardService(store, cfg.Limits())
		reminders = services.NewReminderNotifier(dashboard, notifier, 0)
		logger.Info("Telegram reminders enabled", "schedule", cfg.ReminderCron)
	} else {
		logger.Info("TELEGRAM_TOKEN not set, reminders disabled")
	}

	sched, err := scheduler.New(scheduler.Config{
		RolloverSpec: cfg.RolloverCron,
		ReminderSpec: cfg.ReminderCron,
	}, rollover, reminders, logger.Logger)
	if err != nil {
		logger.Error("Failed to configure scheduler", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		sched.Stop(ctx)
	})

	// Bring stored occurrences up to date before the first tick.
	sched.RunOnce()
	sched.Start()

	logger.Info("Rollover worker configured", "rollover_schedule", cfg.RolloverCron, "workers", cfg.RefreshWorkers)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Rollover worker stopped gracefully")
}
