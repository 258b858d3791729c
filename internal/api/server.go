// Package api provides the REST surface for integration operations.
//
// Endpoints:
//
//   - POST /api/v1/integrations - trigger a project integration
//   - GET  /api/v1/provider/projects - list provider projects
//   - GET  /api/v1/provider/projects/{id}/members - list project members
//   - GET  /api/v1/health - liveness and component health
//   - GET  /metrics - Prometheus metrics
//
// Responses use a uniform envelope with a success flag, a data payload
// on success and a coded error on failure. Service error kinds map to
// HTTP statuses: not_found -> 404, conflict -> 409, provider_error ->
// 502, everything else -> 500.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/apexboard/linear-integration/internal/integration"
	"github.com/apexboard/linear-integration/pkg/metrics"
)

// BuildInfo contains build-time information
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Config holds API server configuration
type Config struct {
	Addr         string        `json:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	EnableCORS   bool          `json:"enable_cors"`
}

// DefaultConfig returns default API server configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		EnableCORS:   true,
	}
}

// Server exposes the integration service over HTTP.
type Server struct {
	config     *Config
	buildInfo  BuildInfo
	service    *integration.Service
	metrics    *metrics.Metrics
	logger     logr.Logger
	startedAt  time.Time
	httpServer *http.Server
}

// NewServer creates a new API server instance.
func NewServer(config *Config, buildInfo BuildInfo, service *integration.Service, m *metrics.Metrics, logger logr.Logger) *Server {
	return &Server{
		config:    config,
		buildInfo: buildInfo,
		service:   service,
		metrics:   m,
		logger:    logger.WithName("api"),
		startedAt: time.Now(),
	}
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info("starting API server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")
	return s.httpServer.Shutdown(ctx)
}

// RegisterTestRoutes exposes the route table for testing.
func (s *Server) RegisterTestRoutes(mux *http.ServeMux) {
	s.registerRoutes(mux)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/integrations", s.handleCreateIntegration)
	mux.HandleFunc("GET /api/v1/provider/projects", s.handleListProviderProjects)
	mux.HandleFunc("GET /api/v1/provider/projects/{id}/members", s.handleListProjectMembers)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return s.withCORS(s.withLogging(next))
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.V(1).Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start))
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	if !s.config.EnableCORS {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Response is the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo carries a stable error code plus human-readable detail.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MetaInfo carries response metadata.
type MetaInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := Response{
		Success: statusCode < 400,
		Data:    data,
		Meta: &MetaInfo{
			Timestamp: time.Now(),
			Version:   s.buildInfo.Version,
		},
	}

	if statusCode >= 400 {
		if errInfo, ok := data.(*ErrorInfo); ok {
			response.Error = errInfo
		} else {
			response.Error = &ErrorInfo{
				Code:    "INTERNAL_ERROR",
				Message: "internal server error",
			}
		}
		response.Data = nil
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error(err, "failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, code, message, details string) {
	s.writeJSON(w, statusCode, &ErrorInfo{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// writeServiceError maps a service failure to an HTTP response.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	kind := integration.KindOf(err)
	status := http.StatusInternalServerError

	switch kind {
	case integration.KindNotFound:
		status = http.StatusNotFound
	case integration.KindConflict:
		status = http.StatusConflict
	case integration.KindProvider:
		status = http.StatusBadGateway
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		s.logger.Error(err, "request failed")
		message = "internal server error"
	}

	s.writeError(w, status, string(kind), message, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.buildInfo.Version,
		"commit":  s.buildInfo.Commit,
		"uptime":  fmt.Sprintf("%v", time.Since(s.startedAt).Round(time.Second)),
	})
}
