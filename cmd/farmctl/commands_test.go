package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"farmdash/internal/config"
	"farmdash/internal/core"
	"farmdash/internal/middleware/auth"
	"farmdash/internal/records"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCatalog(t *testing.T) {
	out, err := run(t, "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	var got core.Catalog
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if diff := cmp.Diff(core.DefaultCatalog(), got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedAndStats(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendMemory)
	path := filepath.Join(t.TempDir(), "farm.yaml")
	doc := "fields:\n  - name: North\n    sizeInAcres: 40\n    location: East\n  - name: South\n    sizeInAcres: 12\n    location: West\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "seed", path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	var result map[string]int
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode seed result %q: %v", out, err)
	}
	if result[records.Fields] != 2 {
		t.Errorf("seed result = %v", result)
	}

	out, err = run(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, `"totalFields": 0`) {
		t.Errorf("stats on a fresh memory store = %s", out)
	}
}

func TestMigrateRequiresSQLite(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendMemory)
	if _, err := run(t, "migrate"); err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Errorf("migrate error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendSQLite)
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "farm.db"))
	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "dirty=false") {
		t.Errorf("migrate output = %q", out)
	}
}

func TestToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	out, err := run(t, "token", "ops", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	s, err := auth.NewVerifier("s3cret", nil).Verify(strings.TrimSpace(out))
	if err != nil || s.Subject != "ops" {
		t.Errorf("Verify() = %+v, %v", s, err)
	}

	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := run(t, "token", "ops"); err == nil {
		t.Error("token without secret should fail")
	}
}
