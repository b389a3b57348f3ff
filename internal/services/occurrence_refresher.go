package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"supcal/internal/core"
)

// RefreshOutcome is the per-record result of a batch refresh.
type RefreshOutcome struct {
	Record  core.Record
	Changed bool
	Err     error
}

// NeedsRefresh reports whether the stored occurrence is missing, has passed,
// or must be cleared because the record is no longer active.
func NeedsRefresh(r core.Record, now time.Time) bool {
	next := r.NextOccurrence()
	if !r.IsActive(now) {
		return next != nil
	}
	return next == nil || !next.After(now)
}

// Refresh returns a copy of r whose next occurrence is the first boundary
// after now (and after the anchor). Inactive records, and records whose next
// boundary falls on or after their end time, come back without an occurrence.
//
// On error the returned copy has no occurrence, so callers that keep going
// never show a computed-but-wrong date.
func Refresh(r core.Record, now time.Time) (core.Record, error) {
	if r.Type != core.TypeSimple && r.Type != core.TypePayment {
		return r, fmt.Errorf("refresh record %s: %w: %q", r.ID, core.ErrInvalidRecordType, r.Type)
	}
	if (r.Type == core.TypeSimple && r.Simple == nil) || (r.Type == core.TypePayment && r.Payment == nil) {
		return r, fmt.Errorf("refresh record %s: %w: missing payload", r.ID, core.ErrInvalidRecordType)
	}
	if !r.IsActive(now) {
		return r.WithNextOccurrence(nil), nil
	}

	from := now
	if anchor := r.Anchor(); anchor.After(from) {
		from = anchor
	}
	next, err := core.NextBoundary(r.Origin(), r.Period(), from)
	if err != nil {
		return r.WithNextOccurrence(nil), fmt.Errorf("refresh record %s: %w", r.ID, err)
	}
	if end := r.EndTime(); end != nil && !next.Before(*end) {
		return r.WithNextOccurrence(nil), nil
	}
	return r.WithNextOccurrence(&next), nil
}

// RefreshAll refreshes every record with at most workers goroutines. One bad
// record never fails the batch: its error is reported in its outcome. The
// returned error is only set when ctx is cancelled.
func RefreshAll(ctx context.Context, recs []core.Record, now time.Time, workers int) ([]RefreshOutcome, error) {
	if workers < 1 {
		workers = 1
	}
	outcomes := make([]RefreshOutcome, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range recs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			refreshed, err := Refresh(recs[i], now)
			outcomes[i] = RefreshOutcome{
				Record:  refreshed,
				Changed: !sameOccurrence(recs[i].NextOccurrence(), refreshed.NextOccurrence()),
				Err:     err,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("refresh batch: %w", err)
	}
	return outcomes, nil
}

func sameOccurrence(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
