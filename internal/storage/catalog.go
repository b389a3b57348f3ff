package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"supcal/internal/core"
	"supcal/internal/records"
)

func (r *SQLRepository) ListCategories(ctx context.Context) ([]records.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, direction, color, created_at FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []records.Category{}
	for rows.Next() {
		var (
			c         records.Category
			direction string
			created   dbTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &direction, &c.Color, &created); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Direction, c.CreatedAt = core.Direction(direction), created.Time
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CreateCategory(ctx context.Context, c records.Category) error {
	query := r.dialect.rebind(`INSERT INTO categories (id, name, direction, color, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, string(c.Direction), c.Color, r.dialect.timeArg(c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %s: %w", c.ID, records.ErrDuplicate)
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListPaymentMethods(ctx context.Context) ([]records.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM payment_methods ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	out := []records.PaymentMethod{}
	for rows.Next() {
		var (
			m       records.PaymentMethod
			created dbTime
		)
		if err := rows.Scan(&m.ID, &m.Name, &created); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		m.CreatedAt = created.Time
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreatePaymentMethod relies on the unique index, which ignores case.
func (r *SQLRepository) CreatePaymentMethod(ctx context.Context, m records.PaymentMethod) error {
	query := r.dialect.rebind(`INSERT INTO payment_methods (id, name, created_at) VALUES (?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, r.dialect.timeArg(m.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("payment method %q: %w", m.Name, records.ErrDuplicate)
		}
		return fmt.Errorf("create payment method: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *moderncsqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
