// Package trace records every HTTP request: a log line with its request id
// and route, plus Prometheus counters and latency.
package trace

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "supcal/internal/log"
	"supcal/internal/metrics"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	base      *applog.Logger
}

// NewMiddleware creates a trace middleware. extractIP may be nil.
func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		base:      logger,
	}
}

// Middleware must run inside chi's RequestID middleware and the router, so
// the request id and the matched route pattern are available.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		ctx := r.Context()
		logger := m.base
		if l, ok := ctx.Value(applog.LoggerContextKey).(*applog.Logger); ok {
			logger = l
		}
		if requestID := middleware.GetReqID(ctx); requestID != "" {
			logger = logger.With(applog.FieldRequestID, requestID)
			ctx = applog.WithLogger(ctx, logger)
			r = r.WithContext(ctx)
		}
		sl := applog.NewStructuredLogger(logger)
		sl.LogHTTPStart(ctx, r, clientIP)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := RoutePattern(r)
		duration := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
		sl.LogHTTPEnd(ctx, r, route, status, duration.Milliseconds(), clientIP)
	})
}

// RoutePattern returns the matched chi pattern, or "unmatched" so that
// probe paths do not create unbounded metric labels.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
