package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supcal/internal/core"
)

func ids(recs []core.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func entryIDs(entries []core.UpcomingEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Record.ID
	}
	return out
}

func TestTopPayments(t *testing.T) {
	now := at(2024, 3, 5, 12)
	anchor := at(2024, 1, 1, 0)

	p1 := payment("p1", core.Expense, "50", anchor, core.Month)
	p2 := payment("p2", core.Expense, "200", anchor, core.Month)
	p3 := payment("p3", core.Income, "200", anchor, core.Month)
	p4 := payment("p4", core.Expense, "10", anchor, core.Month)
	p2.UpdatedAt = at(2024, 2, 1, 0)
	p3.UpdatedAt = at(2024, 3, 1, 0)

	recs := []core.Record{p1, p2, p3, p4, simple("s1", anchor, core.Week)}

	assert.Equal(t, []string{"p3", "p2"}, ids(TopPayments(recs, now, 2)))
	assert.Equal(t, []string{"p3", "p2", "p1", "p4"}, ids(TopPayments(recs, now, 10)))
	assert.Empty(t, TopPayments(recs, now, 0))
	assert.Empty(t, TopPayments(recs, now, -1))
}

func TestTopPaymentsTiesAndInactive(t *testing.T) {
	now := at(2024, 3, 5, 12)
	anchor := at(2024, 1, 1, 0)

	b := payment("b", core.Expense, "20", anchor, core.Month)
	a := payment("a", core.Expense, "20", anchor, core.Month)
	ended := withEnd(payment("z", core.Expense, "999", anchor, core.Month), at(2024, 3, 1, 0))

	got := TopPayments([]core.Record{b, ended, a}, now, 5)
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestUpcomingSimples(t *testing.T) {
	now := at(2024, 3, 5, 12)
	refresh := func(r core.Record) core.Record {
		out, err := Refresh(r, now)
		require.NoError(t, err)
		return out
	}

	// Mar 10 12:00, 5 days
	soon := refresh(simple("soon", at(2024, 2, 10, 12), core.Month))
	// Mar 6 12:00, 1 day
	critical := refresh(simple("crit", at(2024, 2, 6, 12), core.Month))
	// Mar 25 12:00, 20 days
	normal := refresh(simple("norm", at(2024, 1, 25, 12), core.Month))
	// same instant as crit
	tied := refresh(simple("a-tie", at(2024, 2, 6, 12), core.Month))
	ended := withEnd(simple("ended", at(2024, 1, 1, 0), core.Week), at(2024, 3, 1, 0))
	ended = ended.WithNextOccurrence(ptr(at(2024, 3, 6, 0)))
	pay := refresh(payment("pay", core.Expense, "1", at(2024, 2, 6, 0), core.Month))
	noOccurrence := simple("none", at(2024, 1, 1, 0), core.Week)

	recs := []core.Record{soon, critical, normal, tied, ended, pay, noOccurrence}

	got := UpcomingSimples(recs, now, 5)
	require.Equal(t, []string{"a-tie", "crit", "soon", "norm"}, entryIDs(got))
	assert.Equal(t, 1, got[0].DaysUntil)
	assert.Equal(t, core.Critical, got[0].Urgency)
	assert.Equal(t, 5, got[2].DaysUntil)
	assert.Equal(t, core.Soon, got[2].Urgency)
	assert.Equal(t, 20, got[3].DaysUntil)
	assert.Equal(t, core.Normal, got[3].Urgency)

	assert.Equal(t, []string{"a-tie", "crit"}, entryIDs(UpcomingSimples(recs, now, 2)))
	assert.Empty(t, UpcomingSimples(recs, now, 0))

	payments := UpcomingPayments(recs, now, 5)
	assert.Equal(t, []string{"pay"}, entryIDs(payments))
}

func TestSummarize(t *testing.T) {
	anchor := at(2024, 1, 1, 0)
	recs := []core.Record{
		payment("p1", core.Income, "100", anchor, core.Month),
		payment("p2", core.Expense, "40", anchor, core.Month),
		withEnd(payment("p3", core.Income, "60", anchor, core.Month), at(2024, 2, 1, 0)),
		simple("s1", anchor, core.Week),
	}

	s := Summarize(recs)
	assert.Equal(t, "160.00", s.Income.String())
	assert.Equal(t, "40.00", s.Expense.String())
	assert.Equal(t, "120.00", s.Balance.String())
	assert.Equal(t, 3, s.Payments)
	assert.Equal(t, []core.Currency{core.DefaultCurrency}, s.Currencies)
	assert.False(t, s.MixedCurrency)
}

func TestSummarizeNegativeBalanceAndCurrencies(t *testing.T) {
	anchor := at(2024, 1, 1, 0)
	usd := payment("p2", core.Expense, "0.20", anchor, core.Month)
	usd.Payment.Currency = "USD"
	recs := []core.Record{
		payment("p1", core.Income, "0.10", anchor, core.Month),
		usd,
		payment("p3", core.Expense, "0.05", anchor, core.Month),
	}

	s := Summarize(recs)
	assert.Equal(t, "0.10", s.Income.String())
	assert.Equal(t, "0.25", s.Expense.String())
	assert.Equal(t, "-0.15", s.Balance.String())
	assert.Equal(t, []core.Currency{"CNY", "USD"}, s.Currencies)
	assert.True(t, s.MixedCurrency)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Income.IsZero())
	assert.True(t, s.Expense.IsZero())
	assert.True(t, s.Balance.IsZero())
	assert.Empty(t, s.Currencies)
	assert.Zero(t, s.Payments)
}

func TestBuildDashboard(t *testing.T) {
	now := at(2024, 3, 5, 12)
	anchor := at(2024, 1, 1, 0)
	recs := []core.Record{
		payment("p1", core.Income, "100", anchor, core.Month),
		payment("p2", core.Expense, "40", anchor, core.Month),
	}
	s, err := Refresh(simple("s1", anchor, core.Week), now)
	require.NoError(t, err)
	recs = append(recs, s)

	d := BuildDashboard(recs, now, core.Limits{Top: 1, Upcoming: 5})
	assert.Equal(t, now, d.GeneratedAt)
	assert.Equal(t, []string{"p1"}, ids(d.TopPayments))
	assert.Equal(t, []string{"s1"}, entryIDs(d.UpcomingSimples))
	assert.Equal(t, "60.00", d.Summary.Balance.String())
	assert.Equal(t, 6*24*time.Hour-12*time.Hour, d.UpcomingSimples[0].Record.NextOccurrence().Sub(now))
}
