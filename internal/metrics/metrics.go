// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "supcal"

// ─── Occurrence refresh ─────────────────────────────────────────────────────

var RefreshOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "refresh",
	Name:      "outcomes_total",
	Help:      "Record refreshes by result (refreshed, deactivated, unchanged, invalid_anchor, invalid_period, error).",
}, []string{"result"})

var RolloverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "rollover",
	Name:      "duration_seconds",
	Help:      "Duration of one rollover cycle.",
	Buckets:   prometheus.DefBuckets,
})

var RolloverRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "rollover",
	Name:      "runs_total",
	Help:      "Rollover cycles by result.",
}, []string{"result"})

// ─── Dashboard ──────────────────────────────────────────────────────────────

var DashboardBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "dashboard",
	Name:      "builds_total",
	Help:      "Dashboard projections computed, by view.",
}, []string{"view"})

// ─── Events and mirroring ───────────────────────────────────────────────────

var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Record events published to the broker, by kind and result.",
}, []string{"kind", "result"})

var EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "consumed_total",
	Help:      "Record events handled by the mirror worker, by kind and result.",
}, []string{"kind", "result"})

var RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reminders",
	Name:      "sent_total",
	Help:      "Reminder notifications by result.",
}, []string{"result"})

// ─── Calendar feed ──────────────────────────────────────────────────────────

var FeedCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "calendar",
	Name:      "cache_lookups_total",
	Help:      "Calendar feed cache lookups by result (hit, miss).",
}, []string{"result"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route pattern, method and status code.",
}, []string{"route", "method", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

var HTTPRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rejected_total",
	Help:      "Requests stopped or flagged before routing, by reason.",
}, []string{"reason"})
