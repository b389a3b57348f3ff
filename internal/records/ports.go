// Package records declares the storage ports the engine consumes.
package records

import (
	"context"
	"errors"
	"time"

	"supcal/internal/core"
)

// ErrNotFound is returned when no record, category or method has the given id.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique name is already taken.
var ErrDuplicate = errors.New("duplicate")

type (
	// Filter narrows a List call. Zero value means every record.
	Filter struct {
		Type core.RecordType
	}

	Reader interface {
		// List returns one consistent snapshot of the matching records.
		List(ctx context.Context, f Filter) ([]core.Record, error)
		Get(ctx context.Context, id string) (core.Record, error)
	}

	Writer interface {
		// Save inserts or replaces a record (last write wins).
		Save(ctx context.Context, r core.Record) error
		Delete(ctx context.Context, id string) error
	}

	Repository interface {
		Reader
		Writer
	}

	// Category is a free-form payment label with a direction.
	Category struct {
		ID        string
		Name      string
		Direction core.Direction
		Color     string
		CreatedAt time.Time
	}

	// PaymentMethod is a uniquely named means of payment.
	PaymentMethod struct {
		ID        string
		Name      string
		CreatedAt time.Time
	}

	// Catalog stores the support lists offered to clients.
	Catalog interface {
		ListCategories(ctx context.Context) ([]Category, error)
		CreateCategory(ctx context.Context, c Category) error
		ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
		CreatePaymentMethod(ctx context.Context, m PaymentMethod) error
	}

	// Store is what a backend provides.
	Store interface {
		Repository
		Catalog
		Close() error
	}
)
