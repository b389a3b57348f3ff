package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"supcal/internal/core"
	"supcal/internal/records"
)

// ErrInvalidColor rejects category colors that are not #rgb or #rrggbb.
var ErrInvalidColor = errors.New("invalid color")

// CatalogService manages the category and payment-method lists offered to
// clients when editing payments.
type CatalogService struct {
	catalog records.Catalog
	newID   func() string
}

func NewCatalogService(catalog records.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog, newID: uuid.NewString}
}

func (s *CatalogService) Categories(ctx context.Context) ([]records.Category, error) {
	cats, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []records.Category{}
	}
	return cats, nil
}

// CreateCategory validates and stores a new category.
func (s *CatalogService) CreateCategory(ctx context.Context, name, direction, color string, now time.Time) (records.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return records.Category{}, core.ErrEmptyName
	}
	dir, err := core.ParseDirection(direction)
	if err != nil {
		return records.Category{}, err
	}
	color = strings.TrimSpace(color)
	if color != "" && !validColor(color) {
		return records.Category{}, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}

	c := records.Category{ID: s.newID(), Name: name, Direction: dir, Color: color, CreatedAt: now.UTC()}
	if err := s.catalog.CreateCategory(ctx, c); err != nil {
		return records.Category{}, err
	}
	return c, nil
}

func (s *CatalogService) PaymentMethods(ctx context.Context) ([]records.PaymentMethod, error) {
	methods, err := s.catalog.ListPaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	if methods == nil {
		methods = []records.PaymentMethod{}
	}
	return methods, nil
}

// CreatePaymentMethod stores a method; names are unique ignoring case.
func (s *CatalogService) CreatePaymentMethod(ctx context.Context, name string, now time.Time) (records.PaymentMethod, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return records.PaymentMethod{}, core.ErrEmptyName
	}
	m := records.PaymentMethod{ID: s.newID(), Name: name, CreatedAt: now.UTC()}
	if err := s.catalog.CreatePaymentMethod(ctx, m); err != nil {
		return records.PaymentMethod{}, err
	}
	return m, nil
}

func validColor(c string) bool {
	if len(c) != 4 && len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
