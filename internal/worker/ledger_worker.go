package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"farmdash/internal/amqp"
	"farmdash/internal/core"
	"farmdash/internal/records"
	"farmdash/internal/sheets"
)

// LedgerWorker mirrors new expenses and incomes to the ledger sheet.
type LedgerWorker struct {
	store  records.Store
	sheets sheets.LedgerWriter
}

// NewLedgerWorker creates a worker. store is used to load the record when
// an event arrives without one and may be nil.
func NewLedgerWorker(store records.Store, sheets sheets.LedgerWriter) *LedgerWorker {
	return &LedgerWorker{store: store, sheets: sheets}
}

// HandleRecordEvent appends one ledger row per created expense or income.
// Other events are acknowledged without work. A returned error means the
// event should be delivered again.
func (w *LedgerWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	if ev.Action != amqp.ActionCreated || (ev.Table != records.Expenses && ev.Table != records.Incomes) {
		slog.DebugContext(ctx, "Ignoring record event", "table", ev.Table, "id", ev.ID, "action", ev.Action)
		return nil
	}

	slog.InfoContext(ctx, "Processing record event", "table", ev.Table, "id", ev.ID)

	rec := ev.Record
	if len(rec) == 0 {
		if w.store == nil {
			slog.WarnContext(ctx, "Record event without payload and no store configured, skipping",
				"table", ev.Table, "id", ev.ID)
			return nil
		}
		var err error
		rec, err = w.store.Get(ctx, ev.Table, ev.ID)
		if errors.Is(err, records.ErrNotFound) {
			slog.WarnContext(ctx, "Record deleted before ledger sync, skipping", "table", ev.Table, "id", ev.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get %s %d from storage: %w", ev.Table, ev.ID, err)
		}
	}

	row, err := ledgerRow(ev.Table, rec)
	if err != nil {
		// Redelivery cannot fix a malformed record.
		slog.ErrorContext(ctx, "Dropping undecodable ledger record", "table", ev.Table, "id", ev.ID, "error", err)
		return nil
	}

	ref, err := w.sheets.AppendLedgerRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced ledger row",
		"table", ev.Table,
		"id", row.ID,
		"sheets_ref", ref,
		"amount", row.Amount)
	return nil
}

func ledgerRow(table string, rec records.Record) (sheets.LedgerRow, error) {
	switch table {
	case records.Expenses:
		e, err := records.Decode[core.Expense](rec)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		category := string(e.Category)
		if category == "" {
			category = string(core.CategoryOther)
		}
		return sheets.LedgerRow{
			Kind: core.KindExpense, ID: e.ID, Date: e.Date, Description: e.Description,
			Category: category, FieldID: e.FieldID, Party: e.Supplier, Amount: e.Amount,
		}, nil
	case records.Incomes:
		i, err := records.Decode[core.Income](rec)
		if err != nil {
			return sheets.LedgerRow{}, err
		}
		i.DeriveAmount()
		return sheets.LedgerRow{
			Kind: core.KindIncome, ID: i.ID, Date: i.Date, Description: i.Description,
			FieldID: i.FieldID, Party: i.Buyer, Amount: i.Amount,
		}, nil
	}
	return sheets.LedgerRow{}, fmt.Errorf("%w: no ledger row for %q", records.ErrUnknownTable, table)
}
