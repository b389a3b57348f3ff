package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"supcal/internal/adapters"
	"supcal/internal/cache"
	"supcal/internal/calendar"
	"supcal/internal/cli"
	apphttp "supcal/internal/http"
	"supcal/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("supcal")
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	publisher, closePublisher, err := adapters.OpenPublisher(cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, record events disabled", "error", err)
		publisher, closePublisher = nil, func() error { return nil }
	}
	defer closePublisher()

	feedCache := cache.NewLRUCache[string](1, cfg.CalendarCacheTTL)
	feed := calendar.NewFeed(store, feedCache, calendar.Options{})

	records := services.NewRecordService(store, publisher)
	records.OnChange(feed.Invalidate)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		FeedToken:          cfg.CalendarFeedToken,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.AllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		MetricsEnabled:     cfg.MetricsEnabled,
	}, apphttp.Services{
		Records:   records,
		Dashboard: services.NewDashboardService(store, cfg.Limits()),
		Catalog:   services.NewCatalogService(store),
		Feed:      feed,
		Health:    func(ctx context.Context) error { return adapters.Ping(ctx, store) },
	}, logger)

	sweeper := cache.NewManager()
	sweeper.Register(feedCache)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		sweeper.Wait()
		st := feedCache.Stats()
		logger.Info("Calendar feed cache", "hits", st.Hits, "misses", st.Misses, "expired", st.Expired)
	})
	sweeper.Start(ctx, 10*time.Minute)

	if cfg.CalendarFeedToken == "" {
		logger.Info("CALENDAR_FEED_TOKEN not set, calendar feed disabled")
	}
	logger.Info("Starting supcal server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
