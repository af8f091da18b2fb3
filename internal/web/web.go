// Package web provides the HTTP API for the evaluation dashboard.
package web

import (
	"log/slog"
	"net/http"

	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/internal/upstream"
)

// Config holds web handler configuration.
type Config struct {
	// Store holds evaluation records. May be nil when the record store is
	// not configured; reads then fail and writes are skipped.
	Store store.RecordStore
	// Upstream forwards invocation payloads to the agent endpoint (optional).
	Upstream *upstream.Client
	// Logger for request logging.
	Logger *slog.Logger
	// Metrics collects request counters and histograms (optional).
	Metrics *observability.Metrics
}

// Handler is the dashboard API HTTP handler.
type Handler struct {
	config *Config
	mux    *http.ServeMux
}

// NewHandler creates a new API handler.
func NewHandler(cfg *Config) *Handler {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := &Handler{
		config: cfg,
		mux:    http.NewServeMux(),
	}
	h.setupRoutes()
	return h
}

// setupRoutes configures all HTTP routes.
func (h *Handler) setupRoutes() {
	h.mux.HandleFunc("/api/get-evaluations", h.apiGetEvaluations)
	h.mux.HandleFunc("/api/get-evaluation", h.apiGetEvaluation)
	h.mux.HandleFunc("/api/record-eval", h.apiRecordEval)
	h.mux.HandleFunc("/api/lambda-proxy", h.apiLambdaProxy)
	h.mux.HandleFunc("/api/analytics/view", h.apiAnalyticsView)
	h.mux.HandleFunc("/api/analytics/detail", h.apiAnalyticsDetail)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Mount returns the handler with middleware applied.
func (h *Handler) Mount() http.Handler {
	var handler http.Handler = h
	if h.config.Metrics != nil {
		handler = MetricsMiddleware(h.config.Metrics)(handler)
	}
	handler = LoggingMiddleware(h.config.Logger)(handler)
	return handler
}
