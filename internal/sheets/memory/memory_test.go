package memory

import (
	"context"
	"testing"

	"farmdash/internal/core"
	"farmdash/internal/sheets"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	for i, want := range []string{"mem:1", "mem:2"} {
		ref, err := s.AppendLedgerRow(context.Background(), sheets.LedgerRow{
			Kind: core.KindExpense, ID: int64(i + 1), Description: "Seed", Amount: 10,
		})
		if err != nil || ref != want {
			t.Fatalf("AppendLedgerRow() = %q, %v; want %q", ref, err, want)
		}
	}

	rows := s.Rows()
	if len(rows) != 2 || rows[1].ID != 2 {
		t.Fatalf("Rows() = %+v", rows)
	}
	rows[0].Description = "changed"
	if s.Rows()[0].Description != "Seed" {
		t.Error("Rows() must return a copy")
	}
}
