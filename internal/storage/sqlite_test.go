package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"farmdash/internal/records"
	"farmdash/internal/records/recordstest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "farm.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	recordstest.Run(t, func(t *testing.T) records.Store { return newTestStore(t) })
}

func TestSQLiteStoreBooleanFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, follow := range []bool{true, false, true} {
		if _, err := s.Create(ctx, records.Pests, records.Record{"followUpRequired": follow}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	got, err := s.List(ctx, records.Pests, records.ListOptions{
		Filters: []records.Filter{records.Eq("followUpRequired", true)},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestSQLiteStoreNestedValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	history := []any{map[string]any{"stage": "Planted", "date": "2025-03-01T00:00:00Z"}}
	created, err := s.Create(ctx, records.Crops, records.Record{"name": "Corn", "stageHistory": history})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := s.Get(ctx, records.Crops, created.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	list, ok := got["stageHistory"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("stageHistory = %#v", got["stageHistory"])
	}
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		opts     records.ListOptions
		wantSQL  string
		wantArgs int
	}{
		{
			name:    "plain",
			wantSQL: "SELECT id, data FROM fields ORDER BY id",
		},
		{
			name: "ne expands null check",
			opts: records.ListOptions{Filters: []records.Filter{records.Ne("status", "fallow")}},
			wantSQL: "SELECT id, data FROM fields WHERE (json_extract(data, ?) IS NULL OR " +
				"json_extract(data, ?) != ?) ORDER BY id",
			wantArgs: 3,
		},
		{
			name:     "id filter uses column",
			opts:     records.ListOptions{Filters: []records.Filter{records.Gte("id", 3)}, Limit: 5},
			wantSQL:  "SELECT id, data FROM fields WHERE id >= ? ORDER BY id LIMIT ?",
			wantArgs: 2,
		},
		{
			name:     "sort",
			opts:     records.ListOptions{Sort: []records.Sort{{Field: "name", Desc: true}}},
			wantSQL:  "SELECT id, data FROM fields ORDER BY json_extract(data, ?) DESC, id",
			wantArgs: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := buildSelect(records.Fields, tt.opts)
			if strings.TrimSpace(gotSQL) != tt.wantSQL {
				t.Errorf("sql = %q, want %q", gotSQL, tt.wantSQL)
			}
			if len(gotArgs) != tt.wantArgs {
				t.Errorf("args = %v, want %d", gotArgs, tt.wantArgs)
			}
		})
	}
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farm.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != 1 || dirty {
		t.Errorf("version = %d dirty = %v, want 1 false", v, dirty)
	}
}
