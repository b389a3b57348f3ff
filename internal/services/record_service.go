package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"supcal/internal/core"
	"supcal/internal/records"
)

// EventPublisher announces record changes to other processes.
type EventPublisher interface {
	PublishUpserted(ctx context.Context, r core.Record) error
	PublishDeleted(ctx context.Context, id string, typ core.RecordType) error
}

// ChangeListener is called after a record was saved or deleted.
type ChangeListener func(ctx context.Context, id string)

type (
	// SimpleInput carries the client-editable fields of a simple record.
	SimpleInput struct {
		Name        string
		Description string
		Time        time.Time
		Period      core.PeriodKind
		EndTime     *time.Time
	}

	// PaymentInput carries the client-editable fields of a payment record.
	PaymentInput struct {
		Name          string
		Description   string
		Direction     core.Direction
		Category      string
		Amount        core.Money
		PaymentMethod string
		Period        core.PeriodKind
		StartTime     time.Time
		EndTime       *time.Time
		CycleStart    *time.Time
		Notes         string
		Currency      core.Currency
	}
)

// RecordService orchestrates record writes: validation, occurrence refresh,
// persistence and change notification.
type RecordService struct {
	repo      records.Repository
	publisher EventPublisher
	newID     func() string

	mu        sync.RWMutex
	listeners []ChangeListener
}

// NewRecordService builds the service. publisher may be nil when no broker
// is configured.
func NewRecordService(repo records.Repository, publisher EventPublisher) *RecordService {
	return &RecordService{
		repo:      repo,
		publisher: publisher,
		newID:     uuid.NewString,
	}
}

// OnChange registers a listener for saved and deleted records.
func (s *RecordService) OnChange(fn ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *RecordService) Get(ctx context.Context, id string) (core.Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *RecordService) List(ctx context.Context, f records.Filter) ([]core.Record, error) {
	return s.repo.List(ctx, f)
}

func (s *RecordService) CreateSimple(ctx context.Context, in SimpleInput, now time.Time) (core.Record, error) {
	rec := core.NewSimpleRecord(s.newBase(now), in.record())
	return s.create(ctx, rec, now)
}

func (s *RecordService) CreatePayment(ctx context.Context, in PaymentInput, now time.Time) (core.Record, error) {
	p, err := in.record()
	if err != nil {
		return core.Record{}, err
	}
	return s.create(ctx, core.NewPaymentRecord(s.newBase(now), p), now)
}

func (s *RecordService) UpdateSimple(ctx context.Context, id string, in SimpleInput, now time.Time) (core.Record, error) {
	existing, err := s.loadTyped(ctx, id, core.TypeSimple)
	if err != nil {
		return core.Record{}, err
	}
	next := in.record()
	next.NextOccurrence = existing.Simple.NextOccurrence
	return s.update(ctx, existing, core.NewSimpleRecord(existing.Base, next), now)
}

func (s *RecordService) UpdatePayment(ctx context.Context, id string, in PaymentInput, now time.Time) (core.Record, error) {
	existing, err := s.loadTyped(ctx, id, core.TypePayment)
	if err != nil {
		return core.Record{}, err
	}
	next, err := in.record()
	if err != nil {
		return core.Record{}, err
	}
	next.NextOccurrence = existing.Payment.NextOccurrence
	return s.update(ctx, existing, core.NewPaymentRecord(existing.Base, next), now)
}

// Delete removes a record and announces it.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDeleted(ctx, id, existing.Type); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event", "record_id", id, "error", err)
		}
	}
	s.notify(ctx, id)
	return nil
}

func (s *RecordService) create(ctx context.Context, rec core.Record, now time.Time) (core.Record, error) {
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	refreshed, err := Refresh(rec, now)
	if err != nil {
		return core.Record{}, err
	}
	return s.persist(ctx, refreshed)
}

// update keeps identity and creation time. The occurrence is recomputed only
// when the schedule changed or the stored one went stale.
func (s *RecordService) update(ctx context.Context, before, after core.Record, now time.Time) (core.Record, error) {
	after.UpdatedAt = now
	if err := after.Validate(); err != nil {
		return core.Record{}, err
	}
	if core.ScheduleChanged(before, after) || NeedsRefresh(after, now) {
		refreshed, err := Refresh(after, now)
		if err != nil {
			return core.Record{}, err
		}
		after = refreshed
	}
	return s.persist(ctx, after)
}

func (s *RecordService) persist(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := s.repo.Save(ctx, rec); err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	// Publishing is best effort once the record is saved.
	if s.publisher != nil {
		if err := s.publisher.PublishUpserted(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to publish upsert event", "record_id", rec.ID, "error", err)
		}
	}
	s.notify(ctx, rec.ID)
	return rec, nil
}

func (s *RecordService) loadTyped(ctx context.Context, id string, typ core.RecordType) (core.Record, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	if existing.Type != typ {
		return core.Record{}, fmt.Errorf("%w: record %s is %s, not %s", core.ErrInvalidRecordType, id, existing.Type, typ)
	}
	return existing, nil
}

func (s *RecordService) newBase(now time.Time) core.Base {
	return core.Base{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
}

func (s *RecordService) notify(ctx context.Context, id string) {
	s.mu.RLock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, id)
	}
}

func (in SimpleInput) record() core.SimpleRecord {
	return core.SimpleRecord{
		Name:        in.Name,
		Description: in.Description,
		Time:        in.Time,
		Period:      in.Period,
		EndTime:     in.EndTime,
	}
}

func (in PaymentInput) record() (core.PaymentRecord, error) {
	currency, err := core.ParseCurrency(string(in.Currency))
	if err != nil {
		return core.PaymentRecord{}, err
	}
	return core.PaymentRecord{
		Name:          in.Name,
		Description:   in.Description,
		Direction:     in.Direction,
		Category:      in.Category,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Period:        in.Period,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		CycleStart:    in.CycleStart,
		Notes:         in.Notes,
		Currency:      currency,
	}, nil
}
