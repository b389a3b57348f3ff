package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"supcal/internal/core"
	"supcal/internal/metrics"
	"supcal/internal/records"
)

// SummaryFilter narrows the payments folded into a summary. Zero value means
// every payment. The window applies to the payment start time, [From, To).
type SummaryFilter struct {
	Currency core.Currency
	From     *time.Time
	To       *time.Time
}

// Match reports whether a payment passes the filter.
func (f SummaryFilter) Match(r core.Record) bool {
	if r.Type != core.TypePayment || r.Payment == nil {
		return false
	}
	if f.Currency != "" {
		cur := r.Payment.Currency
		if cur == "" {
			cur = core.DefaultCurrency
		}
		if cur != f.Currency {
			return false
		}
	}
	if f.From != nil && r.Payment.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !r.Payment.StartTime.Before(*f.To) {
		return false
	}
	return true
}

// DashboardService serves the read-side projections. Each call reads one
// snapshot and refreshes stale occurrences in memory, so views are correct
// even between rollover runs.
type DashboardService struct {
	repo   records.Reader
	limits core.Limits
}

func NewDashboardService(repo records.Reader, limits core.Limits) *DashboardService {
	return &DashboardService{repo: repo, limits: limits}
}

// Limits returns the configured default list sizes.
func (s *DashboardService) Limits() core.Limits { return s.limits }

func (s *DashboardService) Dashboard(ctx context.Context, now time.Time) (core.Dashboard, error) {
	recs, err := s.snapshot(ctx, now)
	if err != nil {
		return core.Dashboard{}, err
	}
	metrics.DashboardBuilds.WithLabelValues("dashboard").Inc()
	return BuildDashboard(recs, now, s.limits), nil
}

func (s *DashboardService) TopPayments(ctx context.Context, now time.Time, n int) ([]core.Record, error) {
	recs, err := s.snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	metrics.DashboardBuilds.WithLabelValues("top_payments").Inc()
	return TopPayments(recs, now, n), nil
}

func (s *DashboardService) UpcomingSimples(ctx context.Context, now time.Time, n int) ([]core.UpcomingEntry, error) {
	recs, err := s.snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	metrics.DashboardBuilds.WithLabelValues("upcoming_simples").Inc()
	return UpcomingSimples(recs, now, n), nil
}

func (s *DashboardService) UpcomingPayments(ctx context.Context, now time.Time, n int) ([]core.UpcomingEntry, error) {
	recs, err := s.snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	metrics.DashboardBuilds.WithLabelValues("upcoming_payments").Inc()
	return UpcomingPayments(recs, now, n), nil
}

// Summary folds the payments matching f. Occurrences play no part in it, so
// no refresh is needed.
func (s *DashboardService) Summary(ctx context.Context, f SummaryFilter) (core.Summary, error) {
	recs, err := s.repo.List(ctx, records.Filter{Type: core.TypePayment})
	if err != nil {
		return core.Summary{}, fmt.Errorf("load payments: %w", err)
	}
	matched := recs[:0]
	for _, r := range recs {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	metrics.DashboardBuilds.WithLabelValues("summary").Inc()
	return Summarize(matched), nil
}

// Occurrences lists the next count occurrences of one record after now,
// stopping at its end time.
func (s *DashboardService) Occurrences(ctx context.Context, id string, now time.Time, count int) ([]time.Time, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if count <= 0 || !rec.IsActive(now) {
		return []time.Time{}, nil
	}

	from := now
	if anchor := rec.Anchor(); anchor.After(from) {
		from = anchor
	}
	all, err := core.Occurrences(rec.Origin(), rec.Period(), from, count)
	if err != nil {
		return nil, fmt.Errorf("occurrences of record %s: %w", id, err)
	}

	out := make([]time.Time, 0, len(all))
	end := rec.EndTime()
	for _, t := range all {
		if end != nil && !t.Before(*end) {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// snapshot reads every record once and refreshes stale occurrences. A record
// that cannot be refreshed stays listed without an occurrence.
func (s *DashboardService) snapshot(ctx context.Context, now time.Time) ([]core.Record, error) {
	recs, err := s.repo.List(ctx, records.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	for i, r := range recs {
		if !NeedsRefresh(r, now) {
			continue
		}
		refreshed, err := Refresh(r, now)
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, core.ErrInvalidAnchor) {
				level = slog.LevelWarn
			}
			slog.Log(ctx, level, "Record omitted from upcoming views",
				"record_id", r.ID,
				"error", err)
		}
		recs[i] = refreshed
	}
	return recs, nil
}
