package core

import (
	"fmt"
	"strings"
	"time"
)

// Canonical period kinds.
const (
	Week     PeriodKind = "week"
	Month    PeriodKind = "month"
	Quarter  PeriodKind = "quarter"
	HalfYear PeriodKind = "half-year"
	Year     PeriodKind = "year"
)

// Legacy period kinds written by older clients.
const (
	NaturalMonth    PeriodKind = "natural-month"
	MembershipMonth PeriodKind = "membership-month"
)

// PeriodKind is the recurrence step of a record.
type PeriodKind string

// ParsePeriodKind accepts canonical and legacy names and nothing else.
func ParsePeriodKind(s string) (PeriodKind, error) {
	p := PeriodKind(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// IsValid reports whether p is a canonical or legacy kind.
func (p PeriodKind) IsValid() bool {
	switch p {
	case Week, Month, Quarter, HalfYear, Year, NaturalMonth, MembershipMonth:
		return true
	}
	return false
}

// Canonical maps a legacy kind onto the canonical enumeration.
//
//	natural-month    -> month
//	membership-month -> month, stepped from the record's cycle start when one is set
//	quarter, year    -> unchanged
//
// Unknown kinds are returned unchanged and rejected by StepperFor.
func (p PeriodKind) Canonical() PeriodKind {
	switch p {
	case NaturalMonth, MembershipMonth:
		return Month
	}
	return p
}

func (p PeriodKind) String() string { return string(p) }

// Stepper advances an anchor by whole cycles of one period kind.
type Stepper interface {
	// Boundary returns the anchor advanced by k cycles.
	Boundary(anchor time.Time, k int) time.Time
	// Cycles returns an estimate of the whole cycles between anchor and from.
	Cycles(anchor, from time.Time) int
}

type dayStepper struct{ days int }

func (s dayStepper) Boundary(anchor time.Time, k int) time.Time {
	return anchor.AddDate(0, 0, s.days*k)
}

func (s dayStepper) Cycles(anchor, from time.Time) int {
	return int(from.Sub(anchor) / (time.Duration(s.days) * 24 * time.Hour))
}

// monthStepper computes every boundary from the anchor itself, so a clamp in
// a short month never shifts the day of later boundaries.
type monthStepper struct{ months int }

func (s monthStepper) Boundary(anchor time.Time, k int) time.Time {
	return addMonthsClamped(anchor, s.months*k)
}

func (s monthStepper) Cycles(anchor, from time.Time) int {
	months := (from.Year()-anchor.Year())*12 + int(from.Month()) - int(anchor.Month())
	return months / s.months
}

var steppers = map[PeriodKind]Stepper{
	Week:     dayStepper{days: 7},
	Month:    monthStepper{months: 1},
	Quarter:  monthStepper{months: 3},
	HalfYear: monthStepper{months: 6},
	Year:     monthStepper{months: 12},
}

// StepperFor returns the stepper of a period kind, legacy kinds included.
func StepperFor(p PeriodKind) (Stepper, error) {
	s, ok := steppers[p.Canonical()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	return s, nil
}

// NextBoundary returns the smallest anchor + k*period (k >= 1) strictly after from.
// All arithmetic happens in UTC.
func NextBoundary(anchor time.Time, period PeriodKind, from time.Time) (time.Time, error) {
	s, err := StepperFor(period)
	if err != nil {
		return time.Time{}, err
	}
	if anchor.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero anchor", ErrInvalidAnchor)
	}
	anchor, from = anchor.UTC(), from.UTC()

	if anchor.After(s.Boundary(from, 1)) {
		return time.Time{}, fmt.Errorf("%w: anchor %s is more than one %s after %s",
			ErrInvalidAnchor, anchor.Format(time.RFC3339), period, from.Format(time.RFC3339))
	}

	k := s.Cycles(anchor, from)
	if k < 1 {
		k = 1
	}
	for k > 1 && s.Boundary(anchor, k-1).After(from) {
		k--
	}
	for !s.Boundary(anchor, k).After(from) {
		k++
	}
	return s.Boundary(anchor, k), nil
}

// Occurrences lists the next count boundaries after from.
func Occurrences(anchor time.Time, period PeriodKind, from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, count)
	next, err := NextBoundary(anchor, period, from)
	if err != nil {
		return nil, err
	}
	for len(out) < count {
		out = append(out, next)
		if next, err = NextBoundary(anchor, period, next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := daysIn(year, month); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(year, month, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
