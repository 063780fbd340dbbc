package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"farmdash/internal/core"
	"farmdash/internal/dashboard"
	"farmdash/internal/enrich"
	"farmdash/internal/ledger"
	applog "farmdash/internal/log"
	"farmdash/internal/middleware/auth"
	"farmdash/internal/services"
	"farmdash/internal/stats"
	"farmdash/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	clock := func() time.Time { return testNow }
	opts.Services = services.New(services.Deps{Store: memory.New().WithClock(clock), Now: clock})
	opts.Logger = applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentHTTP})
	if opts.Dashboard == nil {
		opts.Dashboard = dashboard.NewLoader(dashboard.FromServices(opts.Services)).WithClock(clock)
	}
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"http://localhost:3000"}
	}
	srv := NewServer(":0", opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func mustStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rr.Code, want, rr.Body.String())
	}
}

const (
	northField = `{"name":"North","sizeInAcres":40,"location":"East ridge"}`
	cornCrop   = `{"name":"Corn","variety":"Sweet","fieldId":1,"plantingDate":"2025-03-01"}`
)

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db down") }})

	mustStatus(t, do(t, srv, http.MethodGet, "/healthz", ""), http.StatusOK)
	mustStatus(t, do(t, srv, http.MethodGet, "/readyz", ""), http.StatusServiceUnavailable)

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	mustStatus(t, rr, http.StatusOK)
	if m := decode[metrics](t, rr); m.Trace.TotalRequests < 2 {
		t.Errorf("trace total = %d, want >= 2", m.Trace.TotalRequests)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestFieldLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/fields", northField)
	mustStatus(t, rr, http.StatusCreated)
	created := decode[core.Field](t, rr)
	if created.ID != 1 || created.Status != core.FieldActive {
		t.Fatalf("created = %+v", created)
	}

	rr = do(t, srv, http.MethodPatch, "/api/fields/1", `{"status":"fallow","id":99}`)
	mustStatus(t, rr, http.StatusOK)
	if got := decode[core.Field](t, rr); got.ID != 1 || got.Status != core.FieldFallow {
		t.Errorf("patched = %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/fields", "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode[[]core.Field](t, rr); len(got) != 1 || got[0].Name != "North" {
		t.Errorf("list = %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/fields/stats", "")
	mustStatus(t, rr, http.StatusOK)
	if got := decode[map[string]float64](t, rr); got["fallowFields"] != 1 || got["totalAcres"] != 40 {
		t.Errorf("stats = %v", got)
	}

	mustStatus(t, do(t, srv, http.MethodDelete, "/api/fields/1", ""), http.StatusNoContent)
	mustStatus(t, do(t, srv, http.MethodDelete, "/api/fields/1", ""), http.StatusNotFound)
	mustStatus(t, do(t, srv, http.MethodGet, "/api/fields/1", ""), http.StatusNotFound)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, Options{})
	mustStatus(t, do(t, srv, http.MethodPost, "/api/fields", northField), http.StatusCreated)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{"missing attributes", http.MethodPost, "/api/fields", `{}`, http.StatusUnprocessableEntity, []string{"location", "name", "sizeInAcres"}},
		{"invalid patch", http.MethodPatch, "/api/fields/1", `{"sizeInAcres":0}`, http.StatusUnprocessableEntity, []string{"sizeInAcres"}},
		{"malformed json", http.MethodPost, "/api/fields", `{"name":`, http.StatusBadRequest, nil},
		{"json array", http.MethodPost, "/api/fields", `[]`, http.StatusBadRequest, nil},
		{"wrong attribute type", http.MethodPost, "/api/fields", `{"name":"N","sizeInAcres":"big","location":"L"}`, http.StatusBadRequest, nil},
		{"non-numeric id", http.MethodGet, "/api/fields/abc", "", http.StatusBadRequest, nil},
		{"absent record", http.MethodGet, "/api/crops/42", "", http.StatusNotFound, nil},
		{"patch absent record", http.MethodPatch, "/api/crops/42", `{"notes":"x"}`, http.StatusNotFound, nil},
		{"bad filter id", http.MethodGet, "/api/tasks?fieldId=x", "", http.StatusBadRequest, nil},
		{"bad ledger date", http.MethodGet, "/api/finance/transactions?from=yesterday", "", http.StatusBadRequest, nil},
		{"bad recent limit", http.MethodGet, "/api/plantings/recent?limit=0", "", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.path, tt.body)
			mustStatus(t, rr, tt.wantStatus)
			body := decode[errorBody](t, rr)
			if body.Error == "" {
				t.Error("empty error message")
			}
			if tt.wantFields == nil {
				return
			}
			var got []string
			for k := range body.Fields {
				got = append(got, k)
			}
			if diff := cmp.Diff(tt.wantFields, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCropStage(t *testing.T) {
	srv := newTestServer(t, Options{})
	mustStatus(t, do(t, srv, http.MethodPost, "/api/fields", northField), http.StatusCreated)
	mustStatus(t, do(t, srv, http.MethodPost, "/api/crops", cornCrop), http.StatusCreated)

	rr := do(t, srv, http.MethodPost, "/api/crops/1/stage", `{"stage":"Vegetative"}`)
	mustStatus(t, rr, http.StatusOK)
	got := decode[stageResponse](t, rr)
	if !got.Changed || got.Crop.GrowthStage != core.StageVegetative || len(got.Crop.StageHistory) != 2 {
		t.Fatalf("stage = %+v", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/crops/1/stage", `{"stage":"Vegetative"}`)
	mustStatus(t, rr, http.StatusOK)
	if again := decode[stageResponse](t, rr); again.Changed || len(again.Crop.StageHistory) != 2 {
		t.Errorf("repeat stage = %+v", again)
	}

	mustStatus(t, do(t, srv, http.MethodPost, "/api/crops/1/stage", `{"stage":"Ripe"}`), http.StatusUnprocessableEntity)
	mustStatus(t, do(t, srv, http.MethodPost, "/api/crops/9/stage", `{"stage":"Flowering"}`), http.StatusNotFound)

	rr = do(t, srv, http.MethodGet, "/api/crops", "")
	mustStatus(t, rr, http.StatusOK)
	crops := decode[[]enrich.CropView](t, rr)
	if len(crops) != 1 || crops[0].FieldName != "North" {
		t.Errorf("crops = %+v", crops)
	}
}

func TestPlantingsAndTaskQueries(t *testing.T) {
	srv := newTestServer(t, Options{})
	mustStatus(t, do(t, srv, http.MethodPost, "/api/fields", northField), http.StatusCreated)
	mustStatus(t, do(t, srv, http.MethodPost, "/api/crops", cornCrop), http.StatusCreated)
	for _, date := range []string{"2025-03-01", "2025-04-05", "2025-04-01"} {
		body := `{"cropId":1,"fieldId":1,"plantingDate":"` + date + `","seedQuantity":10,"plantingMethod":"Row Planting"}`
		mustStatus(t, do(t, srv, http.MethodPost, "/api/plantings", body), http.StatusCreated)
	}

	rr := do(t, srv, http.MethodGet, "/api/plantings/recent?limit=2", "")
	mustStatus(t, rr, http.StatusOK)
	recent := decode[[]enrich.PlantingView](t, rr)
	var dates []string
	for _, p := range recent {
		dates = append(dates, p.PlantingDate.String())
	}
	if diff := cmp.Diff([]string{"2025-04-05", "2025-04-01"}, dates); diff != "" {
		t.Errorf("recent mismatch (-want +got):\n%s", diff)
	}

	tasks := []string{
		`{"name":"Scout","fieldId":1,"status":"Pending"}`,
		`{"name":"Harvest","fieldId":1,"cropId":1,"status":"Completed"}`,
		`{"name":"Repair fence"}`,
	}
	for _, body := range tasks {
		mustStatus(t, do(t, srv, http.MethodPost, "/api/tasks", body), http.StatusCreated)
	}
	queries := []struct {
		query string
		want  []string
	}{
		{"", []string{"Scout", "Harvest", "Repair fence"}},
		{"?fieldId=1", []string{"Scout", "Harvest"}},
		{"?cropId=1", []string{"Harvest"}},
		{"?status=Pending", []string{"Scout", "Repair fence"}},
		{"?fieldId=1&status=Completed", []string{"Harvest"}},
	}
	for _, q := range queries {
		t.Run("tasks"+q.query, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, "/api/tasks"+q.query, "")
			mustStatus(t, rr, http.StatusOK)
			var names []string
			for _, v := range decode[[]enrich.TaskView](t, rr) {
				names = append(names, v.Name)
			}
			if diff := cmp.Diff(q.want, names); diff != "" {
				t.Errorf("tasks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFinanceEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})
	mustStatus(t, do(t, srv, http.MethodPost, "/api/fields", northField), http.StatusCreated)
	mustStatus(t, do(t, srv, http.MethodPost, "/api/expenses",
		`{"fieldId":1,"category":"Seeds","description":"Seed order","amount":120.5,"date":"2025-04-02"}`), http.StatusCreated)
	rr := do(t, srv, http.MethodPost, "/api/incomes",
		`{"fieldId":1,"description":"Corn sale","quantity":100,"pricePerUnit":5,"date":"2025-04-10","buyer":"Co-op"}`)
	mustStatus(t, rr, http.StatusCreated)
	if inc := decode[core.Income](t, rr); inc.Amount != 500 {
		t.Errorf("derived amount = %v, want 500", inc.Amount)
	}

	rr = do(t, srv, http.MethodGet, "/api/finance/stats", "")
	mustStatus(t, rr, http.StatusOK)
	summary := decode[ledger.Summary](t, rr)
	if summary.TotalExpenses != 120.5 || summary.TotalIncome != 500 || summary.NetProfit != 379.5 {
		t.Errorf("summary = %+v", summary)
	}

	rr = do(t, srv, http.MethodGet, "/api/finance/transactions?q=co-op", "")
	mustStatus(t, rr, http.StatusOK)
	if txs := decode[[]ledger.Transaction](t, rr); len(txs) != 1 || txs[0].Description != "Corn sale" {
		t.Errorf("transactions = %+v", txs)
	}

	rr = do(t, srv, http.MethodGet, "/api/finance/profitability/fields", "")
	mustStatus(t, rr, http.StatusOK)
	if rows := decode[[]ledger.Profitability](t, rr); len(rows) != 1 || rows[0].NetProfit != 379.5 {
		t.Errorf("profitability = %+v", rows)
	}

	rr = do(t, srv, http.MethodGet, "/api/finance/export.xlsx", "")
	mustStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "PK") {
		t.Error("export is not a zip container")
	}
}

func TestDashboardAndCatalog(t *testing.T) {
	srv := newTestServer(t, Options{})
	mustStatus(t, do(t, srv, http.MethodPost, "/api/fields", northField), http.StatusCreated)

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "")
	mustStatus(t, rr, http.StatusOK)
	snap := decode[dashboard.Snapshot](t, rr)
	if snap.Fields.TotalFields != 1 || snap.Generation != 1 || len(snap.RecentPlantings) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	rr = do(t, srv, http.MethodGet, "/api/catalog", "")
	mustStatus(t, rr, http.StatusOK)
	cat := decode[core.Catalog](t, rr)
	if diff := cmp.Diff(core.DefaultCatalog(), cat); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

// overlapSource holds the first FieldStats call until the second one has
// started, and the second until release closes.
type overlapSource struct {
	dashboard.Source
	calls         atomic.Int32
	first, second chan struct{}
	release       chan struct{}
}

func (s *overlapSource) FieldStats(ctx context.Context) (stats.FieldStats, error) {
	wait := s.release
	if s.calls.Add(1) == 1 {
		close(s.first)
		wait = s.second
	} else {
		close(s.second)
	}
	select {
	case <-wait:
	case <-ctx.Done():
		return stats.FieldStats{}, ctx.Err()
	}
	return s.Source.FieldStats(ctx)
}

func TestDashboardOverlappingRequests(t *testing.T) {
	clock := func() time.Time { return testNow }
	svc := services.New(services.Deps{Store: memory.New().WithClock(clock), Now: clock})
	src := &overlapSource{
		Source:  dashboard.FromServices(svc),
		first:   make(chan struct{}),
		second:  make(chan struct{}),
		release: make(chan struct{}),
	}
	loader := dashboard.NewLoader(src).WithClock(clock)
	srv := newTestServer(t, Options{Dashboard: loader})

	get := func() <-chan *httptest.ResponseRecorder {
		done := make(chan *httptest.ResponseRecorder, 1)
		go func() { done <- do(t, srv, http.MethodGet, "/api/dashboard", "") }()
		return done
	}

	firstDone := get()
	<-src.first
	secondDone := get()

	// The first request finishes while the second is still loading.
	first := <-firstDone
	mustStatus(t, first, http.StatusOK)
	if snap := decode[dashboard.Snapshot](t, first); snap.Generation != 1 || snap.LoadedAt.IsZero() {
		t.Errorf("first snapshot = %+v, want its own completed load", snap)
	}
	if _, ok := loader.Latest(); ok {
		t.Error("overtaken load was published")
	}

	close(src.release)
	second := <-secondDone
	mustStatus(t, second, http.StatusOK)
	if snap := decode[dashboard.Snapshot](t, second); snap.Generation != 2 {
		t.Errorf("second snapshot generation = %d, want 2", snap.Generation)
	}
	if latest, ok := loader.Latest(); !ok || latest.Generation != 2 {
		t.Errorf("Latest() = %+v, %v, want generation 2", latest, ok)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, Options{AuthSecret: "test-secret", AuthRequired: true})
	token, err := auth.NewVerifier("test-secret", nil).Sign("ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	mustStatus(t, do(t, srv, http.MethodGet, "/healthz", ""), http.StatusOK)
	rr := do(t, srv, http.MethodGet, "/api/fields", "")
	mustStatus(t, rr, http.StatusUnauthorized)
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate")
	}
	mustStatus(t, do(t, srv, http.MethodGet, "/api/fields", "", "Authorization", "Bearer not-a-token"), http.StatusUnauthorized)
	mustStatus(t, do(t, srv, http.MethodGet, "/api/fields", "", "Authorization", "Bearer "+token), http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitRPM: 2})
	for i := 0; i < 2; i++ {
		mustStatus(t, do(t, srv, http.MethodGet, "/api/catalog", ""), http.StatusOK)
	}
	rr := do(t, srv, http.MethodGet, "/api/catalog", "")
	mustStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
	mustStatus(t, do(t, srv, http.MethodGet, "/healthz", ""), http.StatusOK)
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	srv := newTestServer(t, Options{})
	mustStatus(t, do(t, srv, http.MethodGet, "/api/fields?next=/etc/passwd", ""), http.StatusBadRequest)
	mustStatus(t, do(t, srv, http.MethodGet, "/api/fields", "", "User-Agent", "sqlmap/1.7"), http.StatusBadRequest)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodOptions, "/api/fields", "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", http.MethodPatch)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	rr = do(t, srv, http.MethodOptions, "/api/fields", "",
		"Origin", "https://evil.example",
		"Access-Control-Request-Method", http.MethodPatch)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for foreign origin = %q", got)
	}
}
