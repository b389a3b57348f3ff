package services

import (
	"sort"
	"time"

	"supcal/internal/core"
)

// TopPayments returns the n largest active payments. Equal amounts are ordered
// by most recent update, then by id.
func TopPayments(recs []core.Record, now time.Time, n int) []core.Record {
	if n <= 0 {
		return []core.Record{}
	}
	out := make([]core.Record, 0, len(recs))
	for _, r := range recs {
		if r.Type == core.TypePayment && r.Payment != nil && r.IsActive(now) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Payment.Amount.Cmp(b.Payment.Amount); c != 0 {
			return c > 0
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// UpcomingSimples returns the n active reminders with the nearest occurrence.
func UpcomingSimples(recs []core.Record, now time.Time, n int) []core.UpcomingEntry {
	return upcoming(recs, core.TypeSimple, now, n)
}

// UpcomingPayments applies the UpcomingSimples rule to payments.
func UpcomingPayments(recs []core.Record, now time.Time, n int) []core.UpcomingEntry {
	return upcoming(recs, core.TypePayment, now, n)
}

func upcoming(recs []core.Record, typ core.RecordType, now time.Time, n int) []core.UpcomingEntry {
	if n <= 0 {
		return []core.UpcomingEntry{}
	}
	out := make([]core.UpcomingEntry, 0, len(recs))
	for _, r := range recs {
		if r.Type != typ || !r.IsActive(now) {
			continue
		}
		next := r.NextOccurrence()
		if next == nil {
			continue
		}
		days := core.DaysUntil(*next, now)
		out = append(out, core.UpcomingEntry{
			Record:    r,
			DaysUntil: days,
			Urgency:   core.ClassifyUrgency(days),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Record.NextOccurrence(), out[j].Record.NextOccurrence()
		if !a.Equal(*b) {
			return a.Before(*b)
		}
		return out[i].Record.ID < out[j].Record.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Summarize totals every payment, active or not. Amounts in different
// currencies are added as they are; MixedCurrency tells the caller so.
func Summarize(recs []core.Record) core.Summary {
	s := core.Summary{
		Income:     core.NewMoney(0),
		Expense:    core.NewMoney(0),
		Currencies: []core.Currency{},
	}
	seen := map[core.Currency]bool{}
	for _, r := range recs {
		if r.Type != core.TypePayment || r.Payment == nil {
			continue
		}
		p := r.Payment
		switch p.Direction {
		case core.Income:
			s.Income = s.Income.Add(p.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(p.Amount)
		default:
			continue
		}
		s.Payments++
		cur := p.Currency
		if cur == "" {
			cur = core.DefaultCurrency
		}
		if !seen[cur] {
			seen[cur] = true
			s.Currencies = append(s.Currencies, cur)
		}
	}
	sort.Slice(s.Currencies, func(i, j int) bool { return s.Currencies[i] < s.Currencies[j] })
	s.MixedCurrency = len(s.Currencies) > 1
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// BuildDashboard computes every projection from one snapshot and one now.
func BuildDashboard(recs []core.Record, now time.Time, limits core.Limits) core.Dashboard {
	return core.Dashboard{
		GeneratedAt:     now,
		TopPayments:     TopPayments(recs, now, limits.Top),
		UpcomingSimples: UpcomingSimples(recs, now, limits.Upcoming),
		Summary:         Summarize(recs),
	}
}
