// Package http serves the farm dashboard JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"farmdash/internal/cache"
	"farmdash/internal/core"
	"farmdash/internal/dashboard"
	applog "farmdash/internal/log"
	"farmdash/internal/middleware/auth"
	"farmdash/internal/middleware/ratelimit"
	"farmdash/internal/middleware/security"
	"farmdash/internal/middleware/trace"
	"farmdash/internal/services"
)

const (
	sessionCacheSize = 1024
	sessionCacheTTL  = 15 * time.Minute
)

// Options configures NewServer. Services is required.
type Options struct {
	Services  *services.Services
	Dashboard *dashboard.Loader
	// Ready backs /readyz; nil always reports ready.
	Ready  func(context.Context) error
	Logger *applog.Logger

	// AuthSecret enables HS256 bearer tokens; empty disables them.
	AuthSecret     string
	AuthRequired   bool
	CORSOrigins    []string
	RateLimitRPM   int
	RequestTimeout time.Duration
	TrustedProxies []string
}

type Server struct {
	http.Server

	svc       *services.Services
	dashboard *dashboard.Loader
	ready     func(context.Context) error

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager
}

func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Dashboard == nil {
		opts.Dashboard = dashboard.NewLoader(dashboard.FromServices(opts.Services))
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}

	s := &Server{
		svc:       opts.Services,
		dashboard: opts.Dashboard,
		ready:     opts.Ready,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector:  security.NewDetector(),
		tracer:    trace.NewMiddleware(),
		caches:    cache.NewManager(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			opts.Logger.WarnContext(context.Background(), "Ignoring trusted proxy", "cidr", cidr, applog.FieldError, err)
		}
	}

	var verifier *auth.Verifier
	if opts.AuthSecret != "" {
		sessions := cache.NewLRUCache[auth.Session](sessionCacheSize, sessionCacheTTL)
		s.caches.Register(sessions)
		verifier = auth.NewVerifier(opts.AuthSecret, sessions)
	}
	s.caches.StartCleanup(time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(opts.Logger.WithComponent(applog.ComponentHTTP)))
	r.Use(s.tracer.Middleware)
	r.Use(applog.AccessLog(s.detector.ExtractClientIP, func() int64 { return time.Now().UnixMilli() }))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.detector.Middleware)
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited))
		r.Use(middleware.Timeout(opts.RequestTimeout))
		if verifier != nil {
			r.Use(verifier.Middleware(opts.AuthRequired, writeUnauthorized))
		}
		s.routes(r)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

func (s *Server) routes(r chi.Router) {
	svc := s.svc

	resource[core.Field]{
		name: "fields", svc: svc.Fields,
		list:  listBy(svc.Fields.List),
		stats: statsOf(svc.Fields.Stats),
	}.mount(r)
	resource[core.Crop]{
		name: "crops", svc: svc.Crops,
		list:  listBy(svc.Crops.ListEnriched),
		stats: statsOf(svc.Crops.Stats),
		extra: func(r chi.Router) { r.Post("/{id}/stage", s.handleSetStage) },
	}.mount(r)
	resource[core.PlantingRecord]{
		name: "plantings", svc: svc.Plantings,
		list:  listBy(svc.Plantings.ListEnriched),
		stats: statsOf(svc.Plantings.Stats),
		extra: func(r chi.Router) { r.Get("/recent", s.handleRecentPlantings) },
	}.mount(r)
	resource[core.FertilizerRecord]{
		name: "fertilizers", svc: svc.Fertilizers,
		list:  listBy(svc.Fertilizers.ListEnriched),
		stats: statsOf(svc.Fertilizers.Stats),
	}.mount(r)
	resource[core.IrrigationRecord]{
		name: "irrigations", svc: svc.Irrigations,
		list:  listBy(svc.Irrigations.ListEnriched),
		stats: statsOf(svc.Irrigations.Stats),
	}.mount(r)
	resource[core.PestObservation]{
		name: "pests", svc: svc.Pests,
		list:  listBy(svc.Pests.ListEnriched),
		stats: statsOf(svc.Pests.Stats),
	}.mount(r)
	resource[core.Equipment]{
		name: "equipment", svc: svc.Equipment,
		list:  listBy(svc.Equipment.ListEnriched),
		stats: statsOf(svc.Equipment.Stats),
	}.mount(r)
	resource[core.Task]{
		name: "tasks", svc: svc.Tasks,
		list:  s.listTasks,
		stats: statsOf(svc.Tasks.Stats),
	}.mount(r)
	resource[core.Expense]{
		name: "expenses", svc: svc.Expenses,
		list: listBy(svc.Expenses.ListEnriched),
	}.mount(r)
	resource[core.Income]{
		name: "incomes", svc: svc.Incomes,
		list: listBy(svc.Incomes.ListEnriched),
	}.mount(r)

	r.Route("/finance", func(r chi.Router) {
		r.Get("/stats", s.handleFinanceStats)
		r.Get("/transactions", s.handleTransactions)
		r.Get("/profitability/fields", s.handleProfitabilityByField)
		r.Get("/profitability/crops", s.handleProfitabilityByCrop)
		r.Get("/export.xlsx", s.handleExport)
	})
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/catalog", s.handleCatalog)
}

// Shutdown stops background goroutines, then drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.caches.Stop()
	return s.Server.Shutdown(ctx)
}
