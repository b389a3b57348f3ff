// Package http exposes the record engine as a JSON API over chi.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"supcal/internal/calendar"
	applog "supcal/internal/log"
	"supcal/internal/middleware/ratelimit"
	"supcal/internal/middleware/security"
	"supcal/internal/services"
)

// Options configures the transport side of the server.
type Options struct {
	Addr               string
	FeedToken          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	MetricsEnabled     bool
	RequestTimeout     time.Duration

	// TrustedProxies are CIDRs, beyond private and loopback ranges, whose
	// forwarded headers name the client.
	TrustedProxies []string
}

// Services are the application services the handlers call. Feed and Health
// are optional.
type Services struct {
	Records   *services.RecordService
	Dashboard *services.DashboardService
	Catalog   *services.CatalogService
	Feed      *calendar.Feed
	Health    func(ctx context.Context) error
}

type Server struct {
	http.Server

	svc      Services
	opts     Options
	logger   *applog.Logger
	detector *security.Detector
	limiter  *ratelimit.Limiter
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options, svc Services, logger *applog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      opts.RequestTimeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:      svc,
		opts:     opts,
		logger:   logger.WithComponent("http"),
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		now:      time.Now,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.Handler = s.routes()
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
