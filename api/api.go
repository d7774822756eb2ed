// Package api serves object-wise discovery over HTTP.
//
// Routes:
//
//	POST /api/v1/discover       run discovery on an OCEL 2.0 log (JSON or msgpack body)
//	GET  /api/v1/reports        list stored reports
//	GET  /api/v1/reports/{id}   fetch one stored report
//	GET  /health                liveness
//	GET  /metrics               Prometheus metrics
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"hydra/config"
	"hydra/service"
	"hydra/storage"
	"hydra/util/goroutine"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle client keeps its rate limiter
const limiterIdleTTL = 1 * time.Hour

// rateLimiterEntry holds a rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// API holds the API server
type API struct {
	router   *mux.Router
	server   *http.Server
	service  *service.DiscoveryService
	reports  storage.ReportStorage
	cache    storage.ReportCache
	config   *config.Config
	logger   *zap.SugaredLogger
	validate *validator.Validate

	rateLimiters   map[string]*rateLimiterEntry
	rateLimitersMu sync.Mutex

	serverMu sync.Mutex
	stopped  bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewAPI creates a new API server. reports and cache may be nil: without
// reports the report routes answer 503, without cache every request runs
// discovery.
func NewAPI(svc *service.DiscoveryService, reports storage.ReportStorage, cache storage.ReportCache, cfg *config.Config, logger *zap.SugaredLogger) *API {
	if svc == nil {
		panic("discovery service is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	a := &API{
		router:       mux.NewRouter(),
		service:      svc,
		reports:      reports,
		cache:        cache,
		config:       cfg,
		logger:       logger,
		validate:     validator.New(),
		rateLimiters: make(map[string]*rateLimiterEntry),
		stopCh:       make(chan struct{}),
	}
	a.setupRoutes()
	go func() {
		defer goroutine.Recover("api-limiter-cleanup", logger)
		a.cleanupRateLimiters(limiterIdleTTL)
	}()
	return a
}

// setupRoutes sets up the API routes
func (a *API) setupRoutes() {
	a.router.Use(a.metricsMiddleware)

	v1 := a.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(a.rateLimitMiddleware)
	v1.HandleFunc("/discover", a.discover).Methods("POST")
	v1.HandleFunc("/reports", a.listReports).Methods("GET")
	v1.HandleFunc("/reports/{id}", a.getReport).Methods("GET")

	a.router.HandleFunc("/health", a.healthCheck).Methods("GET")
	a.router.Handle("/metrics", promhttp.Handler())
}

// Handler exposes the router, mainly for tests
func (a *API) Handler() http.Handler {
	return a.router
}

// Start starts the API server and blocks until it stops. After Stop it
// returns http.ErrServerClosed.
func (a *API) Start(addr string) error {
	a.serverMu.Lock()
	if a.stopped {
		a.serverMu.Unlock()
		return http.ErrServerClosed
	}
	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  a.config.API.ReadTimeout,
		WriteTimeout: a.config.API.WriteTimeout,
	}
	server := a.server
	a.serverMu.Unlock()

	return server.ListenAndServe()
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopCh) })

	a.serverMu.Lock()
	a.stopped = true
	server := a.server
	a.serverMu.Unlock()

	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}
