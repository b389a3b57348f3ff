// Package sheets declares the spreadsheet mirror port.
package sheets

import (
	"context"

	"supcal/internal/core"
)

// RecordMirror keeps a flat, human-readable copy of every record.
// Both operations are idempotent: upserting twice leaves one row and
// deleting a missing id is not an error.
type RecordMirror interface {
	Upsert(ctx context.Context, r core.Record) error
	Delete(ctx context.Context, id string) error
}
