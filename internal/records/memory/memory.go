package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"supcal/internal/core"
	"supcal/internal/records"
)

// Store keeps records in process memory. Used by the memory backend and tests.
type Store struct {
	mu      sync.RWMutex
	items   map[string]core.Record
	cats    []records.Category
	methods []records.PaymentMethod
}

var _ records.Store = (*Store)(nil)

func New(seed ...core.Record) *Store {
	s := &Store{items: make(map[string]core.Record, len(seed))}
	for _, r := range seed {
		s.items[r.ID] = r.Clone()
	}
	return s
}

// List returns clones sorted by creation time then id.
func (s *Store) List(_ context.Context, f records.Filter) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, 0, len(s.items))
	for _, r := range s.items {
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return core.Record{}, fmt.Errorf("record %s: %w", id, records.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) Save(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.ID] = r.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("record %s: %w", id, records.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]records.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]records.Category(nil), s.cats...), nil
}

func (s *Store) CreateCategory(_ context.Context, c records.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = append(s.cats, c)
	return nil
}

func (s *Store) ListPaymentMethods(_ context.Context) ([]records.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]records.PaymentMethod(nil), s.methods...), nil
}

// CreatePaymentMethod enforces name uniqueness case-insensitively.
func (s *Store) CreatePaymentMethod(_ context.Context, m records.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.methods {
		if strings.EqualFold(existing.Name, m.Name) {
			return fmt.Errorf("payment method %q: %w", m.Name, records.ErrDuplicate)
		}
	}
	s.methods = append(s.methods, m)
	return nil
}

func (s *Store) Close() error { return nil }
