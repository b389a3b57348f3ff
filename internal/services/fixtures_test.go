package services

import (
	"time"

	"supcal/internal/core"
)

func at(y int, m time.Month, d, hh int) time.Time {
	return time.Date(y, m, d, hh, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func simple(id string, anchor time.Time, period core.PeriodKind) core.Record {
	return core.NewSimpleRecord(
		core.Base{ID: id, CreatedAt: anchor, UpdatedAt: anchor},
		core.SimpleRecord{Name: "reminder " + id, Time: anchor, Period: period},
	)
}

func payment(id string, dir core.Direction, amount string, anchor time.Time, period core.PeriodKind) core.Record {
	return core.NewPaymentRecord(
		core.Base{ID: id, CreatedAt: anchor, UpdatedAt: anchor},
		core.PaymentRecord{
			Name:          "payment " + id,
			Direction:     dir,
			Category:      "bills",
			Amount:        core.MustParseAmount(amount),
			PaymentMethod: "card",
			Period:        period,
			StartTime:     anchor,
			Currency:      core.DefaultCurrency,
		},
	)
}

func withEnd(r core.Record, end time.Time) core.Record {
	r = r.Clone()
	switch r.Type {
	case core.TypeSimple:
		r.Simple.EndTime = &end
	case core.TypePayment:
		r.Payment.EndTime = &end
	}
	return r
}
