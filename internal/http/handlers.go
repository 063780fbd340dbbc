package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"farmdash/internal/core"
	"farmdash/internal/dashboard"
	applog "farmdash/internal/log"
	"farmdash/internal/middleware/ratelimit"
	"farmdash/internal/middleware/security"
	"farmdash/internal/middleware/trace"
	"farmdash/internal/services"
)

const (
	defaultRecentPlantings = 5
	maxRecentPlantings     = 100
	readyTimeout           = 2 * time.Second
)

type stageResponse struct {
	Crop    core.Crop `json:"crop"`
	Changed bool      `json:"changed"`
}

func (s *Server) handleSetStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := decodeRecord(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stage, _ := rec["stage"].(string)
	crop, changed, err := s.svc.Crops.SetStage(r.Context(), id, strings.TrimSpace(stage))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if changed {
		applog.FromContext(r.Context()).InfoContext(r.Context(), "Growth stage set",
			applog.FieldRecordID, id, "stage", crop.GrowthStage, applog.FieldOperation, applog.OpStage)
	}
	writeJSON(w, http.StatusOK, stageResponse{Crop: crop, Changed: changed})
}

func (s *Server) handleRecentPlantings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultRecentPlantings, maxRecentPlantings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.svc.Plantings.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) listTasks(r *http.Request) (any, error) {
	var q services.TaskQuery
	var err error
	if q.FieldID, err = queryID(r, "fieldId"); err != nil {
		return nil, err
	}
	if q.CropID, err = queryID(r, "cropId"); err != nil {
		return nil, err
	}
	q.Status = core.TaskStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	return s.svc.Tasks.ListEnriched(r.Context(), q)
}

func (s *Server) handleFinanceStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Finance.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ledgerFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Finance.Transactions(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleProfitabilityByField(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Finance.ProfitabilityByField(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleProfitabilityByCrop(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Finance.ProfitabilityByCrop(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExport buffers the workbook so a failure still yields a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := ledgerFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Finance.Export(r.Context(), &buf, f); err != nil {
		writeError(w, r, fmt.Errorf("export ledger: %w", err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="farm-ledger.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Ledger exported",
		"bytes", buf.Len(), applog.FieldOperation, applog.OpExport)
}

// handleDashboard loads a fresh snapshot. A load overtaken by another
// request still answers with what it computed.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Load(r.Context())
	if err != nil && !errors.Is(err, dashboard.ErrStale) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.DefaultCatalog())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "record store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type metrics struct {
	Trace     trace.Metrics             `json:"trace"`
	RateLimit ratelimit.Metrics         `json:"rateLimit"`
	Security  security.DetectionMetrics `json:"security"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics{
		Trace:     s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	})
}
