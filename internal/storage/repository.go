package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"supcal/internal/core"
	"supcal/internal/records"
)

// SQLRepository stores records and the support catalog in SQLite or Postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ records.Store = (*SQLRepository)(nil)

// NewRepository opens the database, applies pending migrations and returns
// a ready repository.
func NewRepository(dialect Dialect, dsn string) (*SQLRepository, error) {
	db, err := Open(dialect, dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, dialect: dialect}, nil
}

func NewSQLiteRepository(path string) (*SQLRepository, error) {
	return NewRepository(SQLite, path)
}

func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	return NewRepository(Postgres, dsn)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection, used by the health endpoint.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const recordColumns = `id, type, name, description, period, anchor_time, end_time, next_occurrence,
	direction, category, amount, payment_method, cycle_start, notes, currency, created_at, updated_at`

const upsertRecord = `INSERT INTO records (` + recordColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	type = excluded.type,
	name = excluded.name,
	description = excluded.description,
	period = excluded.period,
	anchor_time = excluded.anchor_time,
	end_time = excluded.end_time,
	next_occurrence = excluded.next_occurrence,
	direction = excluded.direction,
	category = excluded.category,
	amount = excluded.amount,
	payment_method = excluded.payment_method,
	cycle_start = excluded.cycle_start,
	notes = excluded.notes,
	currency = excluded.currency,
	updated_at = excluded.updated_at`

// List returns the matching records ordered by creation time then id. Rows
// that cannot be decoded are logged and left out.
func (r *SQLRepository) List(ctx context.Context, f records.Filter) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records`
	var args []any
	if f.Type != "" {
		query += ` WHERE type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []core.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			// one corrupt row must not hide every other record
			slog.WarnContext(ctx, "Skipping unreadable record row",
				"backend", r.dialect,
				"error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (core.Record, error) {
	query := r.dialect.rebind(`SELECT ` + recordColumns + ` FROM records WHERE id = ?`)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("record %s: %w", id, records.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

// Save inserts or replaces the record. created_at of an existing row is kept.
func (r *SQLRepository) Save(ctx context.Context, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.dialect.rebind(upsertRecord), r.recordArgs(rec)...); err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}

	slog.DebugContext(ctx, "Record saved",
		"record_id", rec.ID,
		"record_type", rec.Type,
		"backend", r.dialect)
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM records WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, records.ErrNotFound)
	}
	return nil
}

func (r *SQLRepository) recordArgs(rec core.Record) []any {
	d := r.dialect
	switch rec.Type {
	case core.TypeSimple:
		s := rec.Simple
		return []any{
			rec.ID, string(rec.Type), s.Name, s.Description, string(s.Period),
			d.timeArg(s.Time), d.optTimeArg(s.EndTime), d.optTimeArg(s.NextOccurrence),
			nil, nil, nil, nil, nil, "", nil,
			d.timeArg(rec.CreatedAt), d.timeArg(rec.UpdatedAt),
		}
	default:
		p := rec.Payment
		currency := p.Currency
		if currency == "" {
			currency = core.DefaultCurrency
		}
		return []any{
			rec.ID, string(rec.Type), p.Name, p.Description, string(p.Period),
			d.timeArg(p.StartTime), d.optTimeArg(p.EndTime), d.optTimeArg(p.NextOccurrence),
			string(p.Direction), p.Category, p.Amount, p.PaymentMethod, d.optTimeArg(p.CycleStart),
			p.Notes, string(currency),
			d.timeArg(rec.CreatedAt), d.timeArg(rec.UpdatedAt),
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row. Period strings are loaded as stored so a row with
// an unknown period still lists; the refresher reports it.
func scanRecord(s rowScanner) (core.Record, error) {
	var (
		id, typ, name, description, period, notes  string
		anchor, end, next, cycle, created, updated dbTime
		direction, category, amount, method, curr  sql.NullString
	)
	err := s.Scan(&id, &typ, &name, &description, &period, &anchor, &end, &next,
		&direction, &category, &amount, &method, &cycle, &notes, &curr, &created, &updated)
	if err != nil {
		return core.Record{}, err
	}

	base := core.Base{ID: id, CreatedAt: created.Time, UpdatedAt: updated.Time}
	switch core.RecordType(typ) {
	case core.TypeSimple:
		return core.NewSimpleRecord(base, core.SimpleRecord{
			Name:           name,
			Time:           anchor.Time,
			Period:         core.PeriodKind(period),
			Description:    description,
			EndTime:        end.ptr(),
			NextOccurrence: next.ptr(),
		}), nil
	case core.TypePayment:
		money, err := core.ParseAmount(amount.String)
		if err != nil {
			return core.Record{}, fmt.Errorf("record %s amount %q: %w", id, amount.String, err)
		}
		return core.NewPaymentRecord(base, core.PaymentRecord{
			Name:           name,
			Description:    description,
			Direction:      core.Direction(direction.String),
			Category:       category.String,
			Amount:         money,
			PaymentMethod:  method.String,
			Period:         core.PeriodKind(period),
			StartTime:      anchor.Time,
			EndTime:        end.ptr(),
			CycleStart:     cycle.ptr(),
			Notes:          notes,
			Currency:       core.Currency(curr.String),
			NextOccurrence: next.ptr(),
		}), nil
	default:
		return core.Record{}, fmt.Errorf("record %s: %w: %q", id, core.ErrInvalidRecordType, typ)
	}
}
