package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
)

// ViewProvider computes filtered and aggregated views.
type ViewProvider interface {
	View(g domain.Granularity, start, end time.Time) (analysis.View, error)
}

// Server exposes the view API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	views      ViewProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /api/v1/views/{granularity} routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, views ViewProvider, logger *slog.Logger) *Server {
	r := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		views:  views,
		logger: logger,
	}

	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/views/{granularity}", s.handleView).Methods(http.MethodGet)

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

type viewResponse struct {
	analysis.View
	Records []domain.Record `json:"records,omitempty"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	g, err := domain.ParseGranularity(mux.Vars(r)["granularity"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	q := r.URL.Query()
	start, err := parseDateParam(q.Get("start"), domain.FirstDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("start: %w", err))
		return
	}
	end, err := parseDateParam(q.Get("end"), domain.LastDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("end: %w", err))
		return
	}
	withRecords := false
	if raw := q.Get("include_records"); raw != "" {
		if withRecords, err = strconv.ParseBool(raw); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("include_records: %w", err))
			return
		}
	}

	v, err := s.views.View(g, start, end)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidGranularity) {
			status = http.StatusNotFound
		}
		s.logger.Warn("view request failed", "granularity", g.String(), "error", err)
		s.writeError(w, status, err)
		return
	}

	resp := viewResponse{View: v}
	if withRecords && v.Dataset != nil {
		resp.Records = v.Dataset.Records()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// parseDateParam parses a YYYY-MM-DD query value, falling back to def when
// the parameter is absent.
func parseDateParam(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, &domain.ParseError{Field: "date", Value: raw, Err: err}
	}
	return t, nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 instead of an empty success.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "error", err)
		status, body = http.StatusInternalServerError, []byte(`{"error":"encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // response already committed
}
