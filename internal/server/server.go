// Package server wires configuration, the record store, the upstream client
// and the HTTP API into a runnable dashboard service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/evaldeck/internal/config"
	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/internal/upstream"
	"github.com/haasonsaas/evaldeck/internal/web"
)

// Server is the evaluation dashboard service.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics

	store    store.RecordStore
	upstream *upstream.Client

	httpServer   *http.Server
	httpListener net.Listener
}

// New assembles a server from configuration. The record store is only
// constructed when store credentials or an endpoint override are present;
// otherwise the service runs storeless and record writes are skipped.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		metrics: observability.NewMetrics(nil),
	}

	if cfg.Store.Configured() {
		dynamoStore, err := store.NewDynamoStore(ctx, &store.DynamoConfig{
			TableName:       cfg.Store.TableName,
			Region:          cfg.Store.Region,
			Endpoint:        cfg.Store.Endpoint,
			AccessKeyID:     cfg.Store.AccessKeyID,
			SecretAccessKey: cfg.Store.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("record store: %w", err)
		}
		s.store = store.WithMetrics(dynamoStore, s.metrics)
		logger.Info("record store ready", "table", cfg.Store.TableName, "region", cfg.Store.Region)
	} else {
		logger.Warn("record store not configured, evaluation writes will be skipped")
	}

	if cfg.Upstream.URL != "" {
		client, err := upstream.New(upstream.Config{
			URL:          cfg.Upstream.URL,
			APIKey:       cfg.Upstream.APIKey,
			APIKeyHeader: cfg.Upstream.APIKeyHeader,
			Timeout:      cfg.Upstream.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("upstream client: %w", err)
		}
		s.upstream = client
		logger.Info("upstream client ready",
			"url", cfg.Upstream.URL,
			"api_key", observability.RedactSecret(cfg.Upstream.APIKey),
		)
	} else {
		logger.Warn("upstream endpoint not configured, proxy requests will fail")
	}

	return s, nil
}

// Store exposes the record store (nil when not configured).
func (s *Server) Store() store.RecordStore { return s.store }

// Start begins serving HTTP on the configured address. It returns once the
// listener is bound; serving continues in the background until Stop.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.HTTPPort)
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	apiHandler := web.NewHandler(&web.Config{
		Store:    s.store,
		Upstream: s.upstream,
		Logger:   s.logger,
		Metrics:  s.metrics,
	})
	mux.Handle("/", apiHandler.Mount())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	s.httpServer = server
	s.httpListener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	s.logger.Info("starting http server", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	shutdownCtx := ctx
	var cancel context.CancelFunc
	if shutdownCtx == nil {
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown error", "error", err)
	}
	s.httpServer = nil
	s.httpListener = nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
}
