package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/couchcryptid/nuclide-data-etl/internal/lookup"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes health, readiness, metrics, and nuclide lookup endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/nuclides/{name} routes. Lookups answer 503 until tables holds a table.
func NewServer(addr string, ready sharedobs.ReadinessChecker, tables *lookup.Holder, logger *slog.Logger) *Server {
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
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/nuclides/{name}", s.handleNuclide(tables))

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

func (s *Server) handleNuclide(tables *lookup.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		table, err := tables.Load()
		if err != nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			return
		}

		name := r.PathValue("name")
		nuc, err := table.Resolve(name)
		switch {
		case errors.Is(err, domain.ErrUnknownNuclide):
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		case err != nil:
			s.logger.Error("nuclide lookup failed", "name", name, "error", err)
			sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, nuc)
	}
}
