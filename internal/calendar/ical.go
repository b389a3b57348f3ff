// Package calendar renders records as an iCalendar subscription feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"supcal/internal/core"
)

const untilLayout = "20060102T150405Z"

// Options sets the calendar-level properties of a feed.
type Options struct {
	Name        string
	Description string
	// Timezone is advertised to clients as X-WR-TIMEZONE. Event times are UTC.
	Timezone string
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "SupCal"
	}
	if o.Description == "" {
		o.Description = "Recurring payments and reminders"
	}
	if o.Timezone == "" {
		o.Timezone = "UTC"
	}
	return o
}

// Build renders one event per record. The event starts at the next
// occurrence, or at the anchor when there is none, and repeats with a rule
// matching the record period, stepped from the record's origin so that
// membership cycles clamp on the same days as NextBoundary.
func Build(recs []core.Record, now time.Time, opts Options) string {
	opts = opts.withDefaults()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SupCal//Calendar//EN")
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRCalDesc(opts.Description)
	cal.SetXWRTimezone(opts.Timezone)

	for _, r := range recs {
		start := r.Anchor()
		if next := r.NextOccurrence(); next != nil {
			start = *next
		}

		event := cal.AddEvent(r.ID + "@supcal")
		event.SetDtStampTime(now.UTC())
		event.SetCreatedTime(r.CreatedAt.UTC())
		event.SetModifiedAt(r.UpdatedAt.UTC())
		event.SetStartAt(start.UTC())
		event.SetEndAt(start.UTC())
		event.SetSummary(Summary(r))
		event.SetDescription(Description(r))
		if rule, err := RRule(r.Period(), r.Origin(), r.EndTime()); err == nil {
			event.AddRrule(rule)
		}
		if r.Type == core.TypePayment && r.Payment != nil && r.Payment.Category != "" {
			event.SetProperty(ics.ComponentPropertyCategories, r.Payment.Category)
		}
	}

	return cal.Serialize()
}

// RRule returns the recurrence rule of a period. Month-based rules for
// anchors after the 28th pick the last available day up to the anchor day,
// which matches the clamped boundaries.
func RRule(period core.PeriodKind, anchor time.Time, end *time.Time) (string, error) {
	var parts []string
	anchor = anchor.UTC()

	switch period.Canonical() {
	case core.Week:
		parts = append(parts, "FREQ=WEEKLY")
	case core.Month:
		parts = append(parts, "FREQ=MONTHLY")
	case core.Quarter:
		parts = append(parts, "FREQ=MONTHLY", "INTERVAL=3")
	case core.HalfYear:
		parts = append(parts, "FREQ=MONTHLY", "INTERVAL=6")
	case core.Year:
		parts = append(parts, "FREQ=YEARLY")
		if anchor.Day() > 28 {
			parts = append(parts, fmt.Sprintf("BYMONTH=%d", int(anchor.Month())))
		}
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidPeriod, period)
	}

	if period.Canonical() != core.Week && anchor.Day() > 28 {
		days := make([]string, 0, 4)
		for d := 28; d <= anchor.Day(); d++ {
			days = append(days, fmt.Sprint(d))
		}
		parts = append(parts, "BYMONTHDAY="+strings.Join(days, ","), "BYSETPOS=-1")
	}

	if end != nil {
		// UNTIL is inclusive, the end time is not.
		parts = append(parts, "UNTIL="+end.UTC().Add(-time.Second).Format(untilLayout))
	}
	return strings.Join(parts, ";"), nil
}

// Summary is the event title: a direction arrow with amount for payments,
// a pin for reminders.
func Summary(r core.Record) string {
	switch r.Type {
	case core.TypePayment:
		p := r.Payment
		icon := "↘️"
		if p.Direction == core.Income {
			icon = "↗️"
		}
		currency := p.Currency
		if currency == "" {
			currency = core.DefaultCurrency
		}
		return fmt.Sprintf("%s %s %s %s", icon, p.Name, p.Amount, currency)
	case core.TypeSimple:
		return "📌 " + r.Simple.Name
	}
	return r.Name()
}

// Description lists the record details, one per line.
func Description(r core.Record) string {
	var lines []string
	switch r.Type {
	case core.TypePayment:
		p := r.Payment
		lines = append(lines,
			"Direction: "+string(p.Direction),
			"Category: "+p.Category,
			"Payment method: "+p.PaymentMethod,
			"Period: "+string(p.Period),
		)
		if p.Notes != "" {
			lines = append(lines, "Notes: "+p.Notes)
		}
	case core.TypeSimple:
		lines = append(lines, "Reminder", "Period: "+string(r.Simple.Period))
		if r.Simple.Description != "" {
			lines = append(lines, r.Simple.Description)
		}
	}
	return strings.Join(lines, "\n")
}
