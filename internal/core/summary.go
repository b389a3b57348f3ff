package core

import "time"

// Summary is the historical income/expense/balance fold over payments.
type Summary struct {
	Income  Money
	Expense Money
	Balance Money
	// Currencies lists every currency seen, sorted. More than one entry means
	// the totals mix currencies; nothing is converted.
	Currencies    []Currency
	MixedCurrency bool
	Payments      int
}

// UpcomingEntry is a record annotated with its distance from now.
type UpcomingEntry struct {
	Record    Record
	DaysUntil int
	Urgency   UrgencyTier
}

// Limits bounds the ranked dashboard lists.
type Limits struct {
	Top      int
	Upcoming int
}

// Dashboard bundles the projections computed against one snapshot and one now.
type Dashboard struct {
	GeneratedAt     time.Time
	TopPayments     []Record
	UpcomingSimples []UpcomingEntry
	Summary         Summary
}
