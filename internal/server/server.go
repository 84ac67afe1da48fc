// Package server provides the HTTP API for the RFP pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/rfp-agent/internal/catalog"
	"github.com/jonathan/rfp-agent/internal/history"
	"github.com/jonathan/rfp-agent/internal/ingestion"
	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/memory"
	"github.com/jonathan/rfp-agent/internal/metrics"
	"github.com/jonathan/rfp-agent/internal/pipeline"
	"github.com/jonathan/rfp-agent/internal/server/middleware"
	"github.com/jonathan/rfp-agent/internal/server/ratelimit"
)

// Summarizer produces a short summary of an RFP document.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
}

// Config holds server configuration
type Config struct {
	Port      int
	RateLimit float64 // requests per second per client; 0 disables limiting
	RateBurst int
	Whitelist []string
	// AllowBrowser lets requests ask for headless rendering of tender pages.
	AllowBrowser bool
}

// Deps are the collaborators the handlers call into. Orchestrator is required.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	History      history.Provider
	Memory       *memory.LearningMemory
	Metrics      *metrics.Manager
	Summarizer   Summarizer
	Logger       logger.Logger
	// Ping reports backing store health for /health.
	Ping func(ctx context.Context) error
	// Ingest overrides URL ingestion; tests point it at httptest servers.
	Ingest func(ctx context.Context, url string, opts ingestion.URLOptions) (string, *ingestion.Metadata, error)
}

// Server represents the HTTP server
type Server struct {
	cfg         Config
	d           Deps
	log         logger.Logger
	graph       *catalog.Graph
	rateLimiter *ratelimit.Limiter
	handler     http.Handler
	httpServer  *http.Server
}

// New creates a new server instance
func New(cfg Config, d Deps) (*Server, error) {
	if d.Orchestrator == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	if d.History == nil {
		d.History = history.NewMemoryStore()
	}
	if d.Ingest == nil {
		d.Ingest = ingestion.IngestFromURL
	}

	s := &Server{
		cfg:         cfg,
		d:           d,
		log:         d.Logger.WithFields(map[string]interface{}{"component": "server"}),
		rateLimiter: ratelimit.NewLimiter(ratelimit.NewConfig(cfg.RateLimit, cfg.RateBurst, cfg.Whitelist...)),
	}
	if cat := d.Orchestrator.Catalog(); cat != nil {
		s.graph = catalog.NewGraph(cat)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/rfp/process", s.handleProcess)
	mux.HandleFunc("POST /v1/rfp/process/stream", s.handleProcessStream)
	mux.HandleFunc("POST /v1/rfp/extract", s.handleExtract)
	mux.HandleFunc("GET /v1/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /v1/runs/{id}/audit", s.handleRunAudit)
	mux.HandleFunc("GET /v1/vendors", s.handleVendors)
	mux.HandleFunc("GET /v1/vendors/graph", s.handleVendorGraph)
	mux.HandleFunc("GET /v1/vendors/search", s.handleVendorSearch)
	mux.HandleFunc("GET /v1/vendors/products/{id}/recommendations", s.handleProductRecommendations)
	mux.HandleFunc("GET /v1/history/insights", s.handleHistoryInsights)
	mux.HandleFunc("GET /v1/history/forecast", s.handleHistoryForecast)
	mux.HandleFunc("GET /health", s.handleHealth)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	var recorder middleware.HTTPRecorder
	if d.Metrics != nil {
		recorder = d.Metrics
	}
	s.handler = middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(s.log),
		middleware.Metrics(recorder),
		s.withRateLimit,
		s.withCORS,
	)

	port := cfg.Port
	if port == 0 {
		port = 8080
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // streamed runs stay open
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped", nil)
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed their token bucket.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the remote IP. Forwarded headers are ignored since
// they are client controlled unless a trusted proxy sets them.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 with the retry hint.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retry := int(info.RetryAfter.Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))

	s.log.Warn("rate limit exceeded", map[string]interface{}{
		"request_id": middleware.GetRequestID(r.Context()),
		"client":     extractClientID(r),
		"path":       r.URL.Path,
		"limit":      info.Limit,
	})

	s.jsonResponse(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":       "rate_limit_exceeded",
		"message":     "Rate limit exceeded. Please try again later.",
		"limit":       info.Limit,
		"remaining":   info.Remaining,
		"reset_at":    info.ResetTime.Format(time.RFC3339),
		"retry_after": retry,
	})
}

// handleHealth reports ok, or 503 when the backing store is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.d.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.d.Ping(ctx); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("failed to encode JSON response", nil)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to its status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed", nil)
	}
	s.errorResponse(w, status, err.Error())
}
