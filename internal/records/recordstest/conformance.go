// Package recordstest holds behaviour checks shared by every records.Store
// implementation.
package recordstest

import (
	"context"
	"errors"
	"testing"

	"farmdash/internal/records"
)

// Run exercises store against the records.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) records.Store) {
	t.Helper()

	t.Run("create assigns ids and timestamps", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a, err := s.Create(ctx, records.Fields, records.Record{"name": "North", "sizeInAcres": 10.5})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		b, err := s.Create(ctx, records.Fields, records.Record{"name": "South"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if a.ID() <= 0 || b.ID() <= a.ID() {
			t.Errorf("ids = %d, %d, want increasing positive", a.ID(), b.ID())
		}
		if a[records.KeyCreatedAt] == nil || a[records.KeyUpdatedAt] == nil {
			t.Errorf("timestamps missing: %v", a)
		}
		got, err := s.Get(ctx, records.Fields, a.ID())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got["name"] != "North" {
			t.Errorf("name = %v, want North", got["name"])
		}
		if c, ok := records.Compare(got["sizeInAcres"], 10.5); !ok || c != 0 {
			t.Errorf("sizeInAcres = %v, want 10.5", got["sizeInAcres"])
		}
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), records.Crops, 42)
		if !errors.Is(err, records.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown table", func(t *testing.T) {
		s := newStore(t)
		_, err := s.List(context.Background(), "users", records.ListOptions{})
		if !errors.Is(err, records.ErrUnknownTable) {
			t.Errorf("List() error = %v, want ErrUnknownTable", err)
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		s := newStore(t)
		opts := records.ListOptions{Filters: []records.Filter{records.Eq("name; DROP", 1)}}
		_, err := s.List(context.Background(), records.Fields, opts)
		if !errors.Is(err, records.ErrInvalidFilter) {
			t.Errorf("List() error = %v, want ErrInvalidFilter", err)
		}
	})

	t.Run("update merges and keeps id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created, err := s.Create(ctx, records.Tasks, records.Record{"name": "Weed", "status": "Pending"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		updated, err := s.Update(ctx, records.Tasks, created.ID(), records.Record{"status": "Completed", "id": 999})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.ID() != created.ID() {
			t.Errorf("id = %d, want %d", updated.ID(), created.ID())
		}
		if updated["name"] != "Weed" || updated["status"] != "Completed" {
			t.Errorf("updated = %v", updated)
		}
		if updated[records.KeyCreatedAt] != created[records.KeyCreatedAt] {
			t.Errorf("createdAt changed: %v -> %v", created[records.KeyCreatedAt], updated[records.KeyCreatedAt])
		}
		_, err = s.Update(ctx, records.Tasks, 12345, records.Record{"name": "x"})
		if !errors.Is(err, records.ErrNotFound) {
			t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created, err := s.Create(ctx, records.Expenses, records.Record{"description": "seed"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ok, err := s.Delete(ctx, records.Expenses, created.ID())
		if err != nil || !ok {
			t.Fatalf("Delete() = %v, %v, want true, nil", ok, err)
		}
		ok, err = s.Delete(ctx, records.Expenses, created.ID())
		if err != nil || ok {
			t.Errorf("second Delete() = %v, %v, want false, nil", ok, err)
		}
		if _, err := s.Get(ctx, records.Expenses, created.ID()); !errors.Is(err, records.ErrNotFound) {
			t.Errorf("Get() after delete error = %v", err)
		}
	})

	t.Run("list filters sorts and limits", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		rows := []records.Record{
			{"fieldId": 1, "date": "2025-03-10", "amount": 20.0},
			{"fieldId": 2, "date": "2025-04-01", "amount": 5.0},
			{"fieldId": 1, "date": "2025-04-15", "amount": 7.5},
			{"fieldId": 1, "date": "2025-02-01", "amount": 1.0, "cropId": 3},
		}
		for _, r := range rows {
			if _, err := s.Create(ctx, records.Expenses, r); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}

		tests := []struct {
			name    string
			opts    records.ListOptions
			wantIDs []int64
		}{
			{name: "all in id order", opts: records.ListOptions{}, wantIDs: []int64{1, 2, 3, 4}},
			{
				name:    "eq",
				opts:    records.ListOptions{Filters: []records.Filter{records.Eq("fieldId", int64(1))}},
				wantIDs: []int64{1, 3, 4},
			},
			{
				name:    "ne includes absent",
				opts:    records.ListOptions{Filters: []records.Filter{records.Ne("cropId", 3)}},
				wantIDs: []int64{1, 2, 3},
			},
			{
				name:    "eq nil matches absent",
				opts:    records.ListOptions{Filters: []records.Filter{records.Eq("cropId", nil)}},
				wantIDs: []int64{1, 2, 3},
			},
			{
				name: "date range",
				opts: records.ListOptions{Filters: []records.Filter{
					records.Gte("date", "2025-03-01"),
					records.Lte("date", "2025-04-10"),
				}},
				wantIDs: []int64{1, 2},
			},
			{
				name:    "sort desc with limit",
				opts:    records.ListOptions{Sort: []records.Sort{{Field: "date", Desc: true}}, Limit: 2},
				wantIDs: []int64{3, 2},
			},
			{
				name:    "sort by number",
				opts:    records.ListOptions{Sort: []records.Sort{{Field: "amount"}}},
				wantIDs: []int64{4, 2, 3, 1},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.List(ctx, records.Expenses, tt.opts)
				if err != nil {
					t.Fatalf("List() error = %v", err)
				}
				ids := make([]int64, len(got))
				for i, r := range got {
					ids[i] = r.ID()
				}
				if len(ids) != len(tt.wantIDs) {
					t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
				}
				for i := range ids {
					if ids[i] != tt.wantIDs[i] {
						t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
					}
				}
			})
		}
	})

	t.Run("empty table lists nothing", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(context.Background(), records.Incomes, records.ListOptions{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}
