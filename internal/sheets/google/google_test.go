package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	goption "google.golang.org/api/option"

	"farmdash/internal/core"
	ports "farmdash/internal/sheets"
)

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/absent.json")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNewWithOptions_MissingSpreadsheetID(t *testing.T) {
	_, err := NewWithOptions(context.Background(), " ", "", goption.WithoutAuthentication())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
}

func TestAppendLedgerRow(t *testing.T) {
	var gotPath, gotInput string
	var gotBody struct {
		Values [][]any `json:"values"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInput = r.URL.Query().Get("valueInputOption")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"2025 Ledger!A7:H7"}}`))
	}))
	defer srv.Close()

	c, err := NewWithOptions(context.Background(), "sheet-id", "",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}

	ref, err := c.AppendLedgerRow(context.Background(), ports.LedgerRow{
		Kind: core.KindExpense, ID: 4, Date: core.NewDate(2025, 4, 2),
		Description: "Seed", Category: "Seeds", FieldID: 1, Party: "Coop", Amount: 120.555,
	})
	if err != nil {
		t.Fatalf("AppendLedgerRow() error = %v", err)
	}
	if ref != "2025 Ledger!A7:H7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %q", gotPath)
	}
	if gotInput != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q", gotInput)
	}
	want := [][]any{{"2025-04-02", "expense", float64(4), "Seed", "Seeds", float64(1), "Coop", 120.56}}
	if diff := cmp.Diff(want, gotBody.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendLedgerRow_Rejected(t *testing.T) {
	c, err := NewWithOptions(context.Background(), "sheet-id", "", goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
	if _, err := c.AppendLedgerRow(context.Background(), ports.LedgerRow{ID: 1}); err == nil {
		t.Error("expected error for a row without date")
	}
	if _, err := (&Client{}).AppendLedgerRow(context.Background(), ports.LedgerRow{}); err == nil {
		t.Error("expected error for an uninitialized client")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{"", 2023, ""},
		{"Farm Ledger", 2022, "2022 Farm Ledger"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}
