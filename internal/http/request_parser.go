package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// queryInt reads a positive integer parameter bounded by max. A missing
// parameter yields def.
func queryInt(r *http.Request, key string, def, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("%w: %s must be an integer between 1 and %d", errBadRequest, key, max)
	}
	return n, nil
}

// queryTime reads an RFC 3339 timestamp or a YYYY-MM-DD date (midnight UTC).
// A missing parameter yields nil.
func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD", errBadRequest, key)
}
