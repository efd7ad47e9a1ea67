// Package http exposes the prepared dataset over JSON endpoints alongside
// the operational health, readiness, and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
	"github.com/hydroviz/hydro-data-prep/internal/views"
)

// TableLoader returns the cleaned table for a source, from cache when warm.
type TableLoader interface {
	Load(ctx context.Context, source string) (domain.Table, error)
}

// Refresher reloads the dataset on demand.
type Refresher interface {
	Refresh(ctx context.Context) (domain.Table, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dataset API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	source     string
	tables     TableLoader
	refresher  Refresher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and wires every route.
func NewServer(addr, source string, tables TableLoader, refresher Refresher, ready ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:    source,
		tables:    tables,
		refresher: refresher,
		logger:    logger,
		metrics:   metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/bounds", s.handleBounds)
	mux.HandleFunc("GET /api/plants", s.handlePlants)
	mux.HandleFunc("GET /api/views/{view}", s.handleView)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// meta identifies the table snapshot a response was computed from. Rows is
// the unfiltered cleaned row count.
type meta struct {
	Source    string    `json:"source"`
	RefreshID string    `json:"refresh_id"`
	LoadedAt  time.Time `json:"loaded_at"`
	Rows      int       `json:"rows"`
}

type envelope struct {
	Data any  `json:"data"`
	Meta meta `json:"meta"`
}

func metaFor(table domain.Table) meta {
	return meta{
		Source:    table.Source,
		RefreshID: table.RefreshID,
		LoadedAt:  table.LoadedAt,
		Rows:      len(table.Rows),
	}
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	table, ok := s.currentTable(w, r)
	if !ok {
		return
	}
	s.metrics.ViewRequests.WithLabelValues("bounds").Inc()
	writeJSON(w, http.StatusOK, envelope{Data: domain.ComputeBounds(table.Rows), Meta: metaFor(table)})
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	table, ok := s.currentTable(w, r)
	if !ok {
		return
	}
	s.metrics.ViewRequests.WithLabelValues(views.ViewPlants).Inc()
	writeJSON(w, http.StatusOK, envelope{Data: domain.ApplyFilter(table.Rows, filter), Meta: metaFor(table)})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("view")

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	table, ok := s.currentTable(w, r)
	if !ok {
		return
	}

	view, ok := views.ForName(name, table, filter)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown view %q", name)})
		return
	}
	s.metrics.ViewRequests.WithLabelValues(name).Inc()
	writeJSON(w, http.StatusOK, envelope{Data: view, Meta: metaFor(table)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	table, err := s.refresher.Refresh(r.Context())
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "refreshed", "meta": metaFor(table)})
}

// currentTable loads the table for the configured source, answering 503 on
// failure. The bool reports whether the caller should continue.
func (s *Server) currentTable(w http.ResponseWriter, r *http.Request) (domain.Table, bool) {
	table, err := s.tables.Load(r.Context(), s.source)
	if err != nil {
		s.logger.Error("load table failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return domain.Table{}, false
	}
	return table, true
}

// parseFilter builds a row filter from query parameters: min_capacity,
// min_volume, year_start/year_end (both or neither), and countries
// (repeatable, comma lists allowed).
func parseFilter(q url.Values) (domain.Filter, error) {
	var f domain.Filter

	if v := q.Get("min_capacity"); v != "" {
		x, err := parseFiniteFloat(v)
		if err != nil {
			return f, fmt.Errorf("min_capacity: %w", err)
		}
		f.MinCapacityMW = &x
	}
	if v := q.Get("min_volume"); v != "" {
		x, err := parseFiniteFloat(v)
		if err != nil {
			return f, fmt.Errorf("min_volume: %w", err)
		}
		f.MinResVolMCM = &x
	}

	startStr, endStr := q.Get("year_start"), q.Get("year_end")
	if (startStr == "") != (endStr == "") {
		return f, errors.New("year_start and year_end must be provided together")
	}
	if startStr != "" {
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return f, fmt.Errorf("year_start: %w", err)
		}
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return f, fmt.Errorf("year_end: %w", err)
		}
		if end < start {
			return f, errors.New("year_end must not be before year_start")
		}
		f.Years = &domain.YearRange{Start: start, End: end}
	}

	for _, raw := range q["countries"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				f.Countries = append(f.Countries, c)
			}
		}
	}

	return f, nil
}

func parseFiniteFloat(s string) (float64, error) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, errors.New("must be a finite number")
	}
	return x, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort JSON response
}
