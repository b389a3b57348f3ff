package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"supcal/internal/core"
	"supcal/internal/metrics"
)

// Notifier delivers one reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, entry core.UpcomingEntry) error
}

// ReminderNotifier pushes every critical upcoming reminder through a Notifier.
type ReminderNotifier struct {
	dashboard *DashboardService
	notifier  Notifier
	// limit bounds how many reminders one run may send.
	limit int
}

func NewReminderNotifier(dashboard *DashboardService, notifier Notifier, limit int) *ReminderNotifier {
	if limit < 1 {
		limit = 50
	}
	return &ReminderNotifier{dashboard: dashboard, notifier: notifier, limit: limit}
}

// NotifyCritical sends the reminders classified critical at now, overdue
// ones included. It keeps going past failed sends and returns them joined.
func (n *ReminderNotifier) NotifyCritical(ctx context.Context, now time.Time) (int, error) {
	entries, err := n.dashboard.UpcomingSimples(ctx, now, n.limit)
	if err != nil {
		return 0, fmt.Errorf("build upcoming reminders: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, e := range entries {
		if e.Urgency != core.Critical {
			continue
		}
		if err := n.notifier.Notify(ctx, e); err != nil {
			metrics.RemindersSent.WithLabelValues("error").Inc()
			slog.ErrorContext(ctx, "Failed to send reminder",
				"record_id", e.Record.ID,
				"error", err)
			errs = append(errs, fmt.Errorf("record %s: %w", e.Record.ID, err))
			continue
		}
		sent++
		metrics.RemindersSent.WithLabelValues("ok").Inc()
		slog.InfoContext(ctx, "Sent reminder",
			"record_id", e.Record.ID,
			"days_until", e.DaysUntil)
	}
	return sent, errors.Join(errs...)
}
