package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
	"github.com/couchcryptid/dengue-data-service/internal/listing"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RecordService is the record pipeline as seen by the API.
type RecordService interface {
	ReadinessChecker
	Refresh(ctx context.Context) error
	Records() []domain.CaseRecord
	Listing(term string, page int) (listing.Page, error)
	Regions() []domain.RegionAggregate
	Create(ctx context.Context, in domain.RecordInput) (domain.CaseRecord, error)
	Edit(ctx context.Context, id string, in domain.RecordInput) (domain.CaseRecord, error)
	Delete(ctx context.Context, id string) error
	Busy() bool
	LastError() error
}

// ChoroplethSource joins regional totals onto boundary shapes.
type ChoroplethSource interface {
	Choropleth(aggs []domain.RegionAggregate) *geojson.FeatureCollection
}

// Server exposes the record API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	records    RecordService
	boundaries ChoroplethSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server for svc. boundaries may be nil, in which
// case /api/choropleth answers 404.
func NewServer(addr string, svc RecordService, boundaries ChoroplethSource, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		records:    svc,
		boundaries: boundaries,
		logger:     logger,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(svc))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequestID)
		api.Use(middleware.Recoverer)
		api.Use(requestLogger(logger))
		api.Use(middleware.Timeout(25 * time.Second))

		api.Get("/records", s.handleListRecords)
		api.Post("/records", s.handleCreateRecord)
		api.Put("/records/{id}", s.handleUpdateRecord)
		api.Delete("/records/{id}", s.handleDeleteRecord)
		api.Post("/refresh", s.handleRefresh)
		api.Get("/status", s.handleStatus)
		api.Get("/regions", s.handleRegions)
		api.Get("/choropleth", s.handleChoropleth)
	})

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

// requestLogger logs one line per API request with status and latency.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
