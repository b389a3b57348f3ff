// Package worker mirrors stored records into an external sheet in response
// to record events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"supcal/internal/amqp"
	"supcal/internal/metrics"
	"supcal/internal/records"
	"supcal/internal/sheets"
)

// MirrorWorker applies record events to a RecordMirror. Events only carry an
// id: the current state is always read back from storage, so replays and
// out-of-order deliveries converge on what is stored.
type MirrorWorker struct {
	repo   records.Reader
	mirror sheets.RecordMirror
}

func NewMirrorWorker(repo records.Reader, mirror sheets.RecordMirror) *MirrorWorker {
	return &MirrorWorker{repo: repo, mirror: mirror}
}

// HandleEvent processes a single record event from AMQP. A returned error
// requeues the delivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	err := w.apply(ctx, ev)
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.EventsConsumed.WithLabelValues(string(ev.Kind), result).Inc()
	return err
}

func (w *MirrorWorker) apply(ctx context.Context, ev *amqp.RecordEvent) error {
	slog.InfoContext(ctx, "Processing record event",
		"kind", ev.Kind,
		"record_id", ev.RecordID,
		"record_type", ev.RecordType)

	if ev.Kind == amqp.RecordDeleted {
		if err := w.mirror.Delete(ctx, ev.RecordID); err != nil {
			return fmt.Errorf("delete record from mirror: %w", err)
		}
		return nil
	}

	rec, err := w.repo.Get(ctx, ev.RecordID)
	if errors.Is(err, records.ErrNotFound) {
		// Deleted after the upsert was published; the delete event follows.
		slog.InfoContext(ctx, "Record gone before mirroring, removing row", "record_id", ev.RecordID)
		if err := w.mirror.Delete(ctx, ev.RecordID); err != nil {
			return fmt.Errorf("delete record from mirror: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert record to mirror: %w", err)
	}
	slog.InfoContext(ctx, "Record mirrored",
		"record_id", rec.ID,
		"record_type", rec.Type)
	return nil
}

// ResyncReport counts the outcome of a full resync.
type ResyncReport struct {
	Total  int
	Synced int
	Failed int
}

// Resync upserts every stored record into the mirror. It recovers from
// events lost while the worker was down and runs once at startup.
func (w *MirrorWorker) Resync(ctx context.Context) (ResyncReport, error) {
	recs, err := w.repo.List(ctx, records.Filter{})
	if err != nil {
		return ResyncReport{}, fmt.Errorf("list records for resync: %w", err)
	}

	report := ResyncReport{Total: len(recs)}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := w.mirror.Upsert(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror record during resync",
				"record_id", rec.ID, "error", err)
			report.Failed++
			continue
		}
		report.Synced++
	}

	slog.InfoContext(ctx, "Startup resync completed",
		"total", report.Total,
		"synced", report.Synced,
		"errors", report.Failed)
	return report, nil
}
