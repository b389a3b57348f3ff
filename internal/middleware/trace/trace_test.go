package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "supcal/internal/log"
)

func TestMiddleware_LogsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.NewText(&buf, slog.LevelInfo, applog.ComponentHTTP)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(applog.Middleware(logger))
	r.Use(NewMiddleware(logger, func(*http.Request) string { return "203.0.113.1" }).Middleware)
	r.Get("/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).InfoContext(r.Context(), "handler ran")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/abc", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	out := buf.String()
	for _, want := range []string{"route=/records/{id}", "status_code=418", "client_ip=203.0.113.1", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "request_id=") < 2 {
		t.Errorf("handler log line should carry the request id:\n%s", out)
	}
}

func TestRoutePattern_Unmatched(t *testing.T) {
	if got := RoutePattern(httptest.NewRequest(http.MethodGet, "/x", nil)); got != "unmatched" {
		t.Errorf("RoutePattern() = %q, want unmatched", got)
	}
}
