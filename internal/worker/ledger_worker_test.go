package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"farmdash/internal/amqp"
	"farmdash/internal/core"
	"farmdash/internal/records"
	"farmdash/internal/sheets"
	sheetsmem "farmdash/internal/sheets/memory"
	"farmdash/internal/storage/memory"
)

type failingWriter struct{}

func (failingWriter) AppendLedgerRow(context.Context, sheets.LedgerRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleRecordEvent(t *testing.T) {
	expense := records.Record{
		"id": float64(3), "fieldId": float64(1), "description": "Diesel",
		"amount": 42.5, "date": "2025-04-02", "supplier": "Depot",
	}
	income := records.Record{
		"id": float64(5), "fieldId": float64(2), "description": "Corn sale",
		"quantity": float64(10), "pricePerUnit": 3.5, "date": "2025-04-03", "buyer": "Mill",
	}

	tests := []struct {
		name string
		ev   amqp.RecordEvent
		want []sheets.LedgerRow
	}{
		{
			name: "expense created",
			ev:   amqp.RecordEvent{Table: records.Expenses, ID: 3, Action: amqp.ActionCreated, Record: expense},
			want: []sheets.LedgerRow{{
				Kind: core.KindExpense, ID: 3, Date: core.NewDate(2025, 4, 2), Description: "Diesel",
				Category: "Other", FieldID: 1, Party: "Depot", Amount: 42.5,
			}},
		},
		{
			name: "income created derives amount",
			ev:   amqp.RecordEvent{Table: records.Incomes, ID: 5, Action: amqp.ActionCreated, Record: income},
			want: []sheets.LedgerRow{{
				Kind: core.KindIncome, ID: 5, Date: core.NewDate(2025, 4, 3), Description: "Corn sale",
				FieldID: 2, Party: "Mill", Amount: 35,
			}},
		},
		{
			name: "expense update ignored",
			ev:   amqp.RecordEvent{Table: records.Expenses, ID: 3, Action: amqp.ActionUpdated, Record: expense},
		},
		{
			name: "other table ignored",
			ev:   amqp.RecordEvent{Table: records.Crops, ID: 1, Action: amqp.ActionCreated},
		},
		{
			name: "malformed record dropped",
			ev: amqp.RecordEvent{Table: records.Expenses, ID: 9, Action: amqp.ActionCreated,
				Record: records.Record{"id": float64(9), "amount": "lots"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sheetsmem.New()
			w := NewLedgerWorker(nil, out)
			if err := w.HandleRecordEvent(context.Background(), &tt.ev); err != nil {
				t.Fatalf("HandleRecordEvent() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, out.Rows()); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleRecordEventLoadsMissingPayload(t *testing.T) {
	store := memory.New()
	created, err := store.Create(context.Background(), records.Expenses, records.Record{
		"fieldId": 1, "description": "Seed", "amount": 12.0, "date": "2025-04-02", "category": "Seeds",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	out := sheetsmem.New()
	w := NewLedgerWorker(store, out)
	ev := amqp.RecordEvent{Table: records.Expenses, ID: created.ID(), Action: amqp.ActionCreated}
	if err := w.HandleRecordEvent(context.Background(), &ev); err != nil {
		t.Fatalf("HandleRecordEvent() error = %v", err)
	}
	rows := out.Rows()
	if len(rows) != 1 || rows[0].Category != "Seeds" || rows[0].ID != created.ID() {
		t.Errorf("rows = %+v", rows)
	}

	ev.ID = 404
	if err := w.HandleRecordEvent(context.Background(), &ev); err != nil {
		t.Errorf("deleted record error = %v, want event dropped", err)
	}
	if got := len(out.Rows()); got != 1 {
		t.Errorf("rows after deleted record = %d, want 1", got)
	}
}

func TestHandleRecordEventWriterFailureRequeues(t *testing.T) {
	w := NewLedgerWorker(nil, failingWriter{})
	ev := amqp.RecordEvent{Table: records.Incomes, ID: 1, Action: amqp.ActionCreated,
		Record: records.Record{"id": float64(1), "amount": 10.0, "date": "2025-04-01"}}
	if err := w.HandleRecordEvent(context.Background(), &ev); err == nil {
		t.Fatal("HandleRecordEvent() error = nil, want append failure")
	}
}
