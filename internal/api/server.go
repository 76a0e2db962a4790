package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pagefold/mdgate/internal/identity"
	"github.com/pagefold/mdgate/internal/mcptool"
	"github.com/pagefold/mdgate/internal/orchestrator"
	"github.com/pagefold/mdgate/internal/ratelimit"
	"github.com/pagefold/mdgate/internal/telemetry"
)

// maxBodyBytes caps POST /api bodies; a batch of 10 URLs fits in a few KB.
const maxBodyBytes = 1 << 20

// Server wires HTTP handlers to the orchestrator and the rate-limit gate.
type Server struct {
	router  chi.Router
	orch    *orchestrator.Orchestrator
	gate    *ratelimit.Gate
	logger  *zap.Logger
	name    string
	version string
}

// Options configures NewServer. MCPHandler and SSEHandler may be nil when
// the tool transports are disabled.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Gate         *ratelimit.Gate
	Logger       *zap.Logger
	Name         string
	Version      string
	MCPHandler   http.Handler
	SSEHandler   http.Handler
}

// NewServer constructs a Server with middleware and routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		orch:    opts.Orchestrator,
		gate:    opts.Gate,
		logger:  logger,
		name:    opts.Name,
		version: opts.Version,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)

	r.Get("/", s.descriptor)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Get("/", s.handleGet)
		r.Post("/", s.handlePost)
		r.Options("/", s.handleOptions)
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		})
	})

	if opts.MCPHandler != nil {
		r.Handle("/mcp", s.transportGated(opts.MCPHandler))
		r.Handle("/mcp/*", s.transportGated(opts.MCPHandler))
	}
	if opts.SSEHandler != nil {
		r.Handle("/sse", s.transportGated(opts.SSEHandler))
		r.Handle("/sse/*", s.transportGated(opts.SSEHandler))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// descriptor is the static service card: no rate limiting, no dynamic
// behavior.
func (s *Server) descriptor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    s.name,
		"version": s.version,
		"endpoints": map[string]string{
			"api":     "/api",
			"mcp":     "/mcp",
			"sse":     "/sse",
			"metrics": "/metrics",
		},
		"tools": []string{mcptool.ToolFetchMarkdown, mcptool.ToolBatchFetchMarkdown},
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// transportGated applies the transport scope before any protocol handling.
func (s *Server) transportGated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(w, r, ratelimit.ScopeTransport) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow runs one gate check and, on deny, writes the 429 envelope. It
// returns whether the request may proceed.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, scope ratelimit.Scope) bool {
	d := s.gate.Check(scope, identity.FromRequest(r))
	if d.Allowed {
		return true
	}
	telemetry.ObserveRateLimitDenied(string(scope))
	w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":             "Rate limit exceeded",
		"scope":             string(d.Scope),
		"retryAfterSeconds": d.RetryAfterSeconds,
	})
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware opens /api to all origins; the service is intentionally
// authless.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
