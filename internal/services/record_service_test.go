package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supcal/internal/core"
	"supcal/internal/records"
	"supcal/internal/records/memory"
)

type publishedEvent struct {
	kind string
	id   string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishUpserted(_ context.Context, r core.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{"upserted", r.ID})
	return f.err
}

func (f *fakePublisher) PublishDeleted(_ context.Context, id string, _ core.RecordType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{"deleted", id})
	return f.err
}

func newTestRecordService() (*RecordService, *memory.Store, *fakePublisher) {
	store := memory.New()
	pub := &fakePublisher{}
	svc := NewRecordService(store, pub)
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return svc, store, pub
}

func rentInput() PaymentInput {
	return PaymentInput{
		Name:          "Rent",
		Direction:     core.Expense,
		Category:      "housing",
		Amount:        core.MustParseAmount("1200"),
		PaymentMethod: "transfer",
		Period:        core.Month,
		StartTime:     at(2024, 1, 31, 9),
	}
}

func TestRecordService_CreatePayment(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestRecordService()
	now := at(2024, 3, 5, 12)

	var changed []string
	svc.OnChange(func(_ context.Context, id string) { changed = append(changed, id) })

	rec, err := svc.CreatePayment(ctx, rentInput(), now)
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, core.TypePayment, rec.Type)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, core.DefaultCurrency, rec.Payment.Currency)
	require.NotNil(t, rec.NextOccurrence())
	assert.True(t, at(2024, 3, 31, 9).Equal(*rec.NextOccurrence()))

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)

	assert.Equal(t, []publishedEvent{{"upserted", "id-1"}}, pub.events)
	assert.Equal(t, []string{"id-1"}, changed)
}

func TestRecordService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestRecordService()
	now := at(2024, 3, 5, 12)

	tests := []struct {
		name    string
		mutate  func(*PaymentInput)
		wantErr error
	}{
		{"empty name", func(in *PaymentInput) { in.Name = "" }, core.ErrEmptyName},
		{"bad period", func(in *PaymentInput) { in.Period = "daily" }, core.ErrInvalidPeriod},
		{"bad direction", func(in *PaymentInput) { in.Direction = "sideways" }, core.ErrInvalidDirection},
		{"bad currency", func(in *PaymentInput) { in.Currency = "EURO" }, core.ErrInvalidCurrency},
		{"end before start", func(in *PaymentInput) { end := at(2024, 1, 1, 0); in.EndTime = &end }, core.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := rentInput()
			tt.mutate(&in)
			_, err := svc.CreatePayment(ctx, in, now)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, core.IsValidationError(err))
		})
	}

	all, err := store.List(ctx, records.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, pub.events)
}

func TestRecordService_UpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestRecordService()
	created := at(2024, 3, 5, 12)

	rec, err := svc.CreatePayment(ctx, rentInput(), created)
	require.NoError(t, err)

	in := rentInput()
	in.Amount = core.MustParseAmount("1250")
	in.Notes = "new contract"
	later := at(2024, 3, 6, 8)

	updated, err := svc.UpdatePayment(ctx, rec.ID, in, later)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, "1250.00", updated.Payment.Amount.String())
	assert.Equal(t, rec.NextOccurrence(), updated.NextOccurrence(), "schedule untouched")
}

func TestRecordService_UpdateScheduleRefreshes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestRecordService()
	now := at(2024, 3, 5, 12)

	rec, err := svc.CreateSimple(ctx, SimpleInput{Name: "Water plants", Time: at(2024, 3, 1, 8), Period: core.Week}, now)
	require.NoError(t, err)
	assert.True(t, at(2024, 3, 8, 8).Equal(*rec.NextOccurrence()))

	updated, err := svc.UpdateSimple(ctx, rec.ID, SimpleInput{Name: "Water plants", Time: at(2024, 3, 1, 8), Period: core.Month}, now)
	require.NoError(t, err)
	assert.True(t, at(2024, 4, 1, 8).Equal(*updated.NextOccurrence()))

	end := at(2024, 3, 4, 0)
	ended, err := svc.UpdateSimple(ctx, rec.ID, SimpleInput{Name: "Water plants", Time: at(2024, 3, 1, 8), Period: core.Month, EndTime: &end}, now)
	require.NoError(t, err)
	assert.Nil(t, ended.NextOccurrence())
}

func TestRecordService_UpdateStaleOccurrence(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestRecordService()

	rec, err := svc.CreateSimple(ctx, SimpleInput{Name: "Backup", Time: at(2024, 1, 1, 0), Period: core.Week}, at(2024, 1, 2, 0))
	require.NoError(t, err)

	updated, err := svc.UpdateSimple(ctx, rec.ID, SimpleInput{Name: "Backup disks", Time: at(2024, 1, 1, 0), Period: core.Week}, at(2024, 2, 1, 0))
	require.NoError(t, err)
	assert.True(t, at(2024, 2, 5, 0).Equal(*updated.NextOccurrence()))
}

func TestRecordService_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestRecordService()
	now := at(2024, 3, 5, 12)

	_, err := svc.UpdatePayment(ctx, "missing", rentInput(), now)
	assert.ErrorIs(t, err, records.ErrNotFound)

	rec, err := svc.CreateSimple(ctx, SimpleInput{Name: "Dentist", Time: at(2024, 1, 1, 0), Period: core.HalfYear}, now)
	require.NoError(t, err)
	_, err = svc.UpdatePayment(ctx, rec.ID, rentInput(), now)
	assert.ErrorIs(t, err, core.ErrInvalidRecordType)
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestRecordService()
	now := at(2024, 3, 5, 12)

	rec, err := svc.CreatePayment(ctx, rentInput(), now)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, records.ErrNotFound)
	assert.Equal(t, publishedEvent{"deleted", rec.ID}, pub.events[len(pub.events)-1])

	assert.ErrorIs(t, svc.Delete(ctx, rec.ID), records.ErrNotFound)
}

func TestRecordService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestRecordService()
	pub.err = errors.New("broker down")

	rec, err := svc.CreatePayment(ctx, rentInput(), at(2024, 3, 5, 12))
	require.NoError(t, err)

	_, err = store.Get(ctx, rec.ID)
	assert.NoError(t, err)
}

func TestRecordService_NilPublisher(t *testing.T) {
	svc := NewRecordService(memory.New(), nil)

	rec, err := svc.CreateSimple(context.Background(), SimpleInput{Name: "Taxes", Time: at(2024, 4, 30, 0), Period: core.Year}, at(2024, 3, 5, 12))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.True(t, at(2025, 4, 30, 0).Equal(*rec.NextOccurrence()))
}
