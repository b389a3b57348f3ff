// Package security holds the HTTP hardening middleware: response headers
// and suspicious-request detection.
package security

import (
	"net/http"
	"strconv"
	"time"
)

// HeadersConfig lists the hardening headers sent with every response.
// Empty values are not sent.
type HeadersConfig struct {
	ContentSecurityPolicy     string
	FrameOptions              string
	ContentTypeOptions        string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginResourcePolicy string

	// HSTS is only sent on TLS connections. Zero disables it.
	HSTS                  time.Duration
	HSTSIncludeSubdomains bool
}

// DefaultHeadersConfig suits an API that returns JSON and iCalendar and
// never renders documents.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		// calendar clients subscribe to the feed from other origins
		CrossOriginResourcePolicy: "cross-origin",
		HSTS:                      365 * 24 * time.Hour,
		HSTSIncludeSubdomains:     true,
	}
}

// HeadersMiddleware writes a fixed header set built once from its config.
type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	static := http.Header{}
	for name, value := range map[string]string{
		"Content-Security-Policy":      config.ContentSecurityPolicy,
		"X-Frame-Options":              config.FrameOptions,
		"X-Content-Type-Options":       config.ContentTypeOptions,
		"Referrer-Policy":              config.ReferrerPolicy,
		"Permissions-Policy":           config.PermissionsPolicy,
		"Cross-Origin-Resource-Policy": config.CrossOriginResourcePolicy,
	} {
		if value != "" {
			static.Set(name, value)
		}
	}

	var hsts string
	if seconds := int64(config.HSTS / time.Second); seconds > 0 {
		hsts = "max-age=" + strconv.FormatInt(seconds, 10)
		if config.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}
	return &HeadersMiddleware{static: static, hsts: hsts}
}

// Middleware sets the headers before calling next.
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for name, values := range h.static {
			out[name] = append([]string(nil), values...)
		}
		if r.TLS != nil && h.hsts != "" {
			out.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}
