package sheets

import (
	"context"

	"farmdash/internal/core"
)

// LedgerRow is one journal line mirrored to an external spreadsheet.
type LedgerRow struct {
	Kind        core.TransactionKind
	ID          int64
	Date        core.Date
	Description string
	Category    string
	FieldID     int64
	Party       string
	Amount      float64
}

// Header names the ledger columns in Values order.
var Header = []any{"Date", "Type", "ID", "Description", "Category", "Field", "Party", "Amount"}

// Values renders the row in column order. Amounts are written rounded to
// cents.
func (r LedgerRow) Values() []any {
	return []any{
		r.Date.String(),
		string(r.Kind),
		r.ID,
		r.Description,
		r.Category,
		r.FieldID,
		r.Party,
		core.RoundMoney(r.Amount),
	}
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendLedgerRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)
