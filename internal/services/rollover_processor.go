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

// RolloverReport counts what one rollover cycle did.
type RolloverReport struct {
	Checked     int
	Refreshed   int
	Deactivated int
	Failed      int
}

// RolloverProcessor advances stored occurrences that have passed and clears
// the occurrence of records that ended.
type RolloverProcessor struct {
	repo      records.Repository
	publisher EventPublisher
	workers   int
}

func NewRolloverProcessor(repo records.Repository, publisher EventPublisher, workers int) *RolloverProcessor {
	if workers < 1 {
		workers = 1
	}
	return &RolloverProcessor{
		repo:      repo,
		publisher: publisher,
		workers:   workers,
	}
}

// ProcessDue refreshes every record whose stored occurrence is stale at now.
// Per-record failures are logged and counted; only a failed snapshot read or
// a cancelled context aborts the cycle.
func (p *RolloverProcessor) ProcessDue(ctx context.Context, now time.Time) (RolloverReport, error) {
	var report RolloverReport
	if p.repo == nil {
		return report, fmt.Errorf("processor not properly initialized")
	}

	start := time.Now()
	defer func() { metrics.RolloverDuration.Observe(time.Since(start).Seconds()) }()

	all, err := p.repo.List(ctx, records.Filter{})
	if err != nil {
		metrics.RolloverRuns.WithLabelValues("error").Inc()
		return report, fmt.Errorf("load records: %w", err)
	}
	report.Checked = len(all)

	due := make([]core.Record, 0, len(all))
	for _, r := range all {
		if NeedsRefresh(r, now) {
			due = append(due, r)
		}
	}

	slog.InfoContext(ctx, "Processing rollover",
		"total", len(all),
		"due", len(due),
		"now", now.Format(time.RFC3339))

	outcomes, err := RefreshAll(ctx, due, now, p.workers)
	if err != nil {
		metrics.RolloverRuns.WithLabelValues("cancelled").Inc()
		return report, err
	}

	for i, out := range outcomes {
		if out.Err != nil {
			report.Failed++
			p.logRefreshError(ctx, due[i], out.Err)
			continue
		}
		if !out.Changed {
			metrics.RefreshOutcomes.WithLabelValues("unchanged").Inc()
			continue
		}

		if err := p.repo.Save(ctx, out.Record); err != nil {
			report.Failed++
			metrics.RefreshOutcomes.WithLabelValues("error").Inc()
			slog.ErrorContext(ctx, "Failed to save refreshed record",
				"record_id", out.Record.ID,
				"error", err)
			continue
		}

		if next := out.Record.NextOccurrence(); next != nil {
			report.Refreshed++
			metrics.RefreshOutcomes.WithLabelValues("refreshed").Inc()
			slog.InfoContext(ctx, "Advanced next occurrence",
				"record_id", out.Record.ID,
				"record_name", out.Record.Name(),
				"period", out.Record.Period(),
				"next_occurrence", next.Format(time.RFC3339))
		} else {
			report.Deactivated++
			metrics.RefreshOutcomes.WithLabelValues("deactivated").Inc()
			slog.InfoContext(ctx, "Cleared occurrence of ended record",
				"record_id", out.Record.ID,
				"record_name", out.Record.Name())
		}

		if p.publisher != nil {
			if err := p.publisher.PublishUpserted(ctx, out.Record); err != nil {
				slog.ErrorContext(ctx, "Failed to publish upsert event",
					"record_id", out.Record.ID,
					"error", err)
			}
		}
	}

	metrics.RolloverRuns.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "Rollover complete",
		"checked", report.Checked,
		"refreshed", report.Refreshed,
		"deactivated", report.Deactivated,
		"failed", report.Failed)

	return report, nil
}

// logRefreshError reports a bad anchor as a data integrity warning and
// everything else as an error.
func (p *RolloverProcessor) logRefreshError(ctx context.Context, r core.Record, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAnchor):
		metrics.RefreshOutcomes.WithLabelValues("invalid_anchor").Inc()
		slog.WarnContext(ctx, "Record anchor is inconsistent with its period",
			"record_id", r.ID,
			"anchor", r.Anchor().Format(time.RFC3339),
			"period", r.Period(),
			"error_type", "data_integrity_error",
			"error", err)
	case errors.Is(err, core.ErrInvalidPeriod):
		metrics.RefreshOutcomes.WithLabelValues("invalid_period").Inc()
		slog.ErrorContext(ctx, "Record has an unknown period",
			"record_id", r.ID,
			"period", r.Period(),
			"error", err)
	default:
		metrics.RefreshOutcomes.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Failed to refresh record",
			"record_id", r.ID,
			"error", err)
	}
}
