package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TypeSimple  RecordType = "simple"
	TypePayment RecordType = "payment"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

type (
	// RecordType is the discriminant of the Record union.
	RecordType string

	// Direction signs a payment in the summary.
	Direction string

	// Currency is a three-letter code. It is stored, never converted.
	Currency string

	// Base holds the fields shared by every record variant.
	Base struct {
		ID        string
		Type      RecordType
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// SimpleRecord is a plain recurring reminder.
	SimpleRecord struct {
		Name           string
		Time           time.Time // anchor
		Period         PeriodKind
		Description    string
		EndTime        *time.Time
		NextOccurrence *time.Time
	}

	// PaymentRecord is a recurring income or expense.
	PaymentRecord struct {
		Name           string
		Description    string
		Direction      Direction
		Category       string
		Amount         Money
		PaymentMethod  string
		Period         PeriodKind
		StartTime      time.Time // anchor
		EndTime        *time.Time
		CycleStart     *time.Time // membership-month origin, optional
		Notes          string
		Currency       Currency
		NextOccurrence *time.Time
	}

	// Record is a tagged union: Type selects which of Simple or Payment is set.
	Record struct {
		Base
		Simple  *SimpleRecord
		Payment *PaymentRecord
	}
)

var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidAnchor     = errors.New("invalid anchor")
	ErrInvalidRecordType = errors.New("invalid record type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidCurrency   = errors.New("invalid currency")
	ErrEmptyName         = errors.New("empty name")
	ErrNameTooLong       = errors.New("name too long (max 200 characters)")
	ErrEmptyCategory     = errors.New("empty category")
	ErrMissingAnchor     = errors.New("missing anchor time")
	ErrEndBeforeStart    = errors.New("end time must be after the anchor time")
)

// IsValidationError reports whether err comes from record validation.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidPeriod, ErrInvalidRecordType, ErrInvalidAmount, ErrInvalidDirection,
		ErrInvalidCurrency, ErrEmptyName, ErrNameTooLong, ErrEmptyCategory, ErrMissingAnchor, ErrEndBeforeStart,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ParseRecordType accepts "simple" and "payment".
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToLower(strings.TrimSpace(s)))
	if t != TypeSimple && t != TypePayment {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecordType, s)
	}
	return t, nil
}

// ParseDirection accepts "income" and "expense".
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if d != Income && d != Expense {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// ParseCurrency normalises a currency code; empty means DefaultCurrency.
func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultCurrency, nil
	}
	if len(s) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
		}
	}
	return Currency(s), nil
}

// NewSimpleRecord wraps a simple record in the union.
func NewSimpleRecord(base Base, s SimpleRecord) Record {
	base.Type = TypeSimple
	return Record{Base: base, Simple: &s}
}

// NewPaymentRecord wraps a payment record in the union.
func NewPaymentRecord(base Base, p PaymentRecord) Record {
	base.Type = TypePayment
	return Record{Base: base, Payment: &p}
}

// Name returns the display name of either variant.
func (r Record) Name() string {
	switch r.Type {
	case TypeSimple:
		return r.Simple.Name
	case TypePayment:
		return r.Payment.Name
	}
	return ""
}

// Anchor returns Time for simple records and StartTime for payments.
func (r Record) Anchor() time.Time {
	switch r.Type {
	case TypeSimple:
		return r.Simple.Time
	case TypePayment:
		return r.Payment.StartTime
	}
	return time.Time{}
}

// Origin is the lattice origin used to step occurrences. It differs from
// Anchor only for membership-month payments that carry a cycle start.
func (r Record) Origin() time.Time {
	if r.Type == TypePayment && r.Payment.Period == MembershipMonth && r.Payment.CycleStart != nil {
		return *r.Payment.CycleStart
	}
	return r.Anchor()
}

// Period returns the period kind of either variant.
func (r Record) Period() PeriodKind {
	switch r.Type {
	case TypeSimple:
		return r.Simple.Period
	case TypePayment:
		return r.Payment.Period
	}
	return ""
}

// EndTime returns the optional end time of either variant.
func (r Record) EndTime() *time.Time {
	switch r.Type {
	case TypeSimple:
		return r.Simple.EndTime
	case TypePayment:
		return r.Payment.EndTime
	}
	return nil
}

// NextOccurrence returns the stored derived occurrence, nil when absent.
func (r Record) NextOccurrence() *time.Time {
	switch r.Type {
	case TypeSimple:
		return r.Simple.NextOccurrence
	case TypePayment:
		return r.Payment.NextOccurrence
	}
	return nil
}

// IsActive reports whether the record has no end time or ends after now.
func (r Record) IsActive(now time.Time) bool {
	end := r.EndTime()
	return end == nil || end.After(now)
}

// WithNextOccurrence returns a deep copy carrying the given occurrence.
func (r Record) WithNextOccurrence(next *time.Time) Record {
	out := r.Clone()
	switch out.Type {
	case TypeSimple:
		out.Simple.NextOccurrence = next
	case TypePayment:
		out.Payment.NextOccurrence = next
	}
	return out
}

// Clone copies the record so callers never share variant pointers.
func (r Record) Clone() Record {
	out := Record{Base: r.Base}
	if r.Simple != nil {
		s := *r.Simple
		s.EndTime = cloneTime(s.EndTime)
		s.NextOccurrence = cloneTime(s.NextOccurrence)
		out.Simple = &s
	}
	if r.Payment != nil {
		p := *r.Payment
		p.EndTime = cloneTime(p.EndTime)
		p.CycleStart = cloneTime(p.CycleStart)
		p.NextOccurrence = cloneTime(p.NextOccurrence)
		out.Payment = &p
	}
	return out
}

// ScheduleChanged reports whether an update touched a field the occurrence
// depends on: period, anchor, end time or cycle start.
func ScheduleChanged(before, after Record) bool {
	if before.Type != after.Type {
		return true
	}
	if before.Period() != after.Period() || !before.Anchor().Equal(after.Anchor()) {
		return true
	}
	if !equalTime(before.EndTime(), after.EndTime()) {
		return true
	}
	if before.Type == TypePayment && !equalTime(before.Payment.CycleStart, after.Payment.CycleStart) {
		return true
	}
	return false
}

// Validate checks the fields the engine relies on.
func (r Record) Validate() error {
	switch r.Type {
	case TypeSimple:
		if r.Simple == nil || r.Payment != nil {
			return fmt.Errorf("%w: simple record without simple payload", ErrInvalidRecordType)
		}
		return r.Simple.Validate()
	case TypePayment:
		if r.Payment == nil || r.Simple != nil {
			return fmt.Errorf("%w: payment record without payment payload", ErrInvalidRecordType)
		}
		return r.Payment.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecordType, r.Type)
	}
}

func (s SimpleRecord) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 200 {
		return ErrNameTooLong
	}
	if s.Time.IsZero() {
		return ErrMissingAnchor
	}
	if !s.Period.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, s.Period)
	}
	if s.EndTime != nil && !s.EndTime.After(s.Time) {
		return ErrEndBeforeStart
	}
	return nil
}

func (p PaymentRecord) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return ErrNameTooLong
	}
	if p.Direction != Income && p.Direction != Expense {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, p.Direction)
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.StartTime.IsZero() {
		return ErrMissingAnchor
	}
	if !p.Period.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, p.Period)
	}
	if p.EndTime != nil && !p.EndTime.After(p.StartTime) {
		return ErrEndBeforeStart
	}
	if _, err := ParseCurrency(string(p.Currency)); err != nil {
		return err
	}
	return nil
}

// Signed returns +amount for income and -amount for expense.
func (p PaymentRecord) Signed() Money {
	if p.Direction == Expense {
		return Money{Amount: p.Amount.Amount.Neg()}
	}
	return p.Amount
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
