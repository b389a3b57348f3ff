// Package ratelimit implements a fixed-window per-client request limiter.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"supcal/internal/metrics"
)

// Config holds rate limiter configuration. Zero fields take the defaults
// of NewLimiter.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// IdleTimeout drops clients that sent nothing for this long.
	IdleTimeout time.Duration
}

const (
	defaultPerMinute   = 60
	defaultCleanup     = 5 * time.Minute
	defaultIdleTimeout = 10 * time.Minute
	window             = time.Minute
)

// Limiter counts requests per client key over one-minute windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*counter
	now     func() time.Time

	limit       int
	idleTimeout time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	start time.Time
	last  time.Time
	hits  int
}

// NewLimiter creates a limiter and starts its cleanup goroutine. Call Stop
// to release it.
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaultPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaultCleanup
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaultIdleTimeout
	}

	rl := &Limiter{
		windows:     make(map[string]*counter),
		now:         time.Now,
		limit:       config.RequestsPerMinute,
		idleTimeout: config.IdleTimeout,
		stop:        make(chan struct{}),
	}
	go rl.sweep(config.CleanupInterval)
	return rl
}

// Allow reports whether one more request from key fits in the current window.
func (rl *Limiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// RetryAfter returns the whole seconds left in key's window.
func (rl *Limiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.windows[key]
	if !ok {
		return 0
	}
	return ceilSeconds(c.start.Add(window).Sub(rl.now()))
}

// take counts one request for key and, when it is over the limit, returns
// the time until the window resets.
func (rl *Limiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.windows[key]
	if !ok || !now.Before(c.start.Add(window)) {
		rl.windows[key] = &counter{start: now, last: now, hits: 1}
		return true, 0
	}

	c.hits++
	c.last = now
	if c.hits <= rl.limit {
		return true, 0
	}
	return false, c.start.Add(window).Sub(now)
}

func (rl *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stop:
			return
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTimeout)
	for key, c := range rl.windows {
		if c.last.Before(cutoff) {
			delete(rl.windows, key)
		}
	}
}

// ActiveClients returns the number of tracked client keys.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. onLimit, when set, writes the rejection body.
func (rl *Limiter) Middleware(clientKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := rl.take(clientKey(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRejected.WithLabelValues("rate_limit").Inc()
			if secs := ceilSeconds(wait); secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
