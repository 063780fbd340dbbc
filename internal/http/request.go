package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"farmdash/internal/core"
	"farmdash/internal/ledger"
	"farmdash/internal/records"
)

const maxBodyBytes = 1 << 20

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// queryID parses an optional positive id query parameter; 0 when absent.
func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return id, nil
}

func queryLimit(r *http.Request, def, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw)
	}
	if n > max {
		n = max
	}
	return n, nil
}

func queryDate(r *http.Request, name string) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: invalid %s: %v", errBadRequest, name, err)
	}
	return d, nil
}

// refOptions turns fieldId and cropId query parameters into equality
// filters.
func refOptions(r *http.Request) (records.ListOptions, error) {
	var opts records.ListOptions
	for _, name := range []string{"fieldId", "cropId"} {
		id, err := queryID(r, name)
		if err != nil {
			return opts, err
		}
		if id != 0 {
			opts.Filters = append(opts.Filters, records.Eq(name, id))
		}
	}
	return opts, nil
}

func ledgerFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	f := ledger.Filter{
		Query:    q.Get("q"),
		Category: strings.TrimSpace(q.Get("category")),
	}
	var err error
	if f.FieldID, err = queryID(r, "fieldId"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(r, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// decodeRecord reads a JSON object body.
func decodeRecord(w http.ResponseWriter, r *http.Request) (records.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var rec records.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errBadRequest)
	}
	return rec, nil
}
