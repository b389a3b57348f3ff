package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"supcal/internal/cache"
	"supcal/internal/core"
	"supcal/internal/metrics"
	"supcal/internal/records"
	"supcal/internal/services"
)

const feedKey = "feed"

// Feed renders the subscription calendar and caches it until the TTL passes
// or Invalidate is called.
type Feed struct {
	repo  records.Reader
	cache cache.Cache[string]
	opts  Options
	now   func() time.Time
}

func NewFeed(repo records.Reader, c cache.Cache[string], opts Options) *Feed {
	return &Feed{repo: repo, cache: c, opts: opts, now: time.Now}
}

// Render returns the iCalendar document.
func (f *Feed) Render(ctx context.Context) (string, error) {
	if body, ok := f.cache.Get(feedKey); ok {
		metrics.FeedCache.WithLabelValues("hit").Inc()
		return body, nil
	}
	metrics.FeedCache.WithLabelValues("miss").Inc()

	recs, err := f.repo.List(ctx, records.Filter{})
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}
	now := f.now()
	shown := recs[:0]
	for _, r := range recs {
		if services.NeedsRefresh(r, now) {
			refreshed, err := services.Refresh(r, now)
			if err != nil {
				level := slog.LevelError
				if errors.Is(err, core.ErrInvalidAnchor) {
					level = slog.LevelWarn
				}
				slog.Log(ctx, level, "Record omitted from calendar feed",
					"component", "calendar",
					"record_id", r.ID,
					"error", err)
				continue
			}
			r = refreshed
		}
		shown = append(shown, r)
	}

	body := Build(shown, now, f.opts)
	f.cache.Set(feedKey, body)
	return body, nil
}

// Invalidate drops the cached document. Wired to record changes.
func (f *Feed) Invalidate(context.Context, string) {
	f.cache.Purge()
}

