package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/swell-alert-etl/internal/pipeline"
)

// RunReporter exposes the most recent run.
type RunReporter interface {
	LastRun() (pipeline.Summary, bool)
}

// Server exposes health, readiness, run status, and metrics endpoints while
// the pipeline runs on a schedule.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /runs/latest, and
// /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, runs RunReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /runs/latest", handleLatestRun(runs))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleLatestRun(runs RunReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		summary, ok := runs.LastRun()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"status": "no run yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, summary.Report())
	}
}
