package google

import (
	"fmt"
	"strings"
	"time"

	"supcal/internal/core"
)

// Header is the first row of the mirror sheet. Column A always holds the id.
var Header = []any{
	"ID", "Type", "Name", "Direction", "Category", "Amount", "Currency",
	"Period", "Anchor", "End", "Next occurrence", "Payment method", "Description", "Updated",
}

// lastColumn is the letter of the last Header column.
var lastColumn = columnLetter(len(Header))

// recordRow flattens a record into one sheet row, aligned with Header.
func recordRow(r core.Record) ([]any, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	row := []any{
		r.ID, string(r.Type), r.Name(), "", "", "", "",
		r.Period().String(), formatTime(ptrTime(r.Anchor())), formatTime(r.EndTime()),
		formatTime(r.NextOccurrence()), "", "", formatTime(ptrTime(r.UpdatedAt)),
	}
	switch r.Type {
	case core.TypePayment:
		p := r.Payment
		row[3] = string(p.Direction)
		row[4] = p.Category
		row[5] = p.Amount.String()
		row[6] = string(p.Currency)
		row[11] = p.PaymentMethod
		row[12] = p.Description
	case core.TypeSimple:
		row[12] = r.Simple.Description
	}
	return row, nil
}

// findRow returns the 1-based sheet row holding id in a column-A read,
// or 0 when the id is absent. The header row is never matched.
func findRow(values [][]any, id string) int {
	for i := 1; i < len(values); i++ {
		if len(values[i]) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(values[i][0])) == id {
			return i + 1
		}
	}
	return 0
}

// hasHeader reports whether the first row already carries the id header.
func hasHeader(values [][]any) bool {
	if len(values) == 0 || len(values[0]) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(fmt.Sprint(values[0][0])), "ID")
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func ptrTime(t time.Time) *time.Time { return &t }

// columnLetter converts a 1-based column index to A1 notation (1 -> A, 27 -> AA).
func columnLetter(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
