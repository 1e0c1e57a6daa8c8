// Package http assembles the HTTP surface: middleware chain, feature
// routes, health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutorhub/internal/platform/config"
	"tutorhub/internal/platform/metrics"
	"tutorhub/internal/platform/middleware"
	"tutorhub/pkg/platform/httputil"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Registrar mounts a feature's routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// Config wires the router. Handlers register their own routes; the router
// owns the cross-cutting middleware and the operational endpoints.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	Handlers       []Registrar

	// StreamPaths are exempt from the request timeout; event streams hold
	// their response open indefinitely.
	StreamPaths []string

	// ClientKeys are served verbatim from GET /api/config.
	ClientKeys config.ClientKeys

	// Health checks by dependency name. Empty map means always healthy.
	Checks map[string]HealthChecker
}

// NewRouter builds the chi mux. Middleware order matters: recovery outermost
// so even logging panics turn into 500s, then request identity, then the
// per-request log line, then the deadline.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout, cfg.StreamPaths...))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Latency(cfg.Metrics))
	}

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	r.Get("/api/config", handleClientConfig(cfg.ClientKeys))
	r.Get("/healthz", handleHealth(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleClientConfig(keys config.ClientKeys) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, keys)
	}
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
