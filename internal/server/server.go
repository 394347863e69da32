// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pdiddy/foodsafety-engine/internal/interaction"
	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/internal/metrics"
	"github.com/pdiddy/foodsafety-engine/internal/pipeline"
	"github.com/pdiddy/foodsafety-engine/internal/reference"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

// maxBodyBytes bounds a submitted sample.
const maxBodyBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

// Server serves analyses, the reference catalog, health, and metrics.
type Server struct {
	cfg     types.PipelineConfig
	deps    pipeline.Deps
	catalog *reference.Catalog
	metrics *metrics.Collector
}

// New returns a server that runs the pipeline with cfg and deps. Completed
// runs are observed by m; a nil m gets a fresh collector. deps.Catalog must
// be set.
func New(cfg types.PipelineConfig, deps pipeline.Deps, m *metrics.Collector) *Server {
	if m == nil {
		m = metrics.New()
	}
	deps.Observer = m
	return &Server{cfg: cfg, deps: deps, catalog: deps.Catalog, metrics: m}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/analyses", s.handleAnalyze)
		v1.Get("/catalog", s.handleCatalogKinds)
		v1.Get("/catalog/stats", s.handleCatalogStats)
		v1.Get("/catalog/composition/{category}", s.handleComposition)
		v1.Get("/catalog/{kind}", s.handleCatalog)
		v1.Get("/samples", s.handlePresets)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infow("server listening", logging.FieldAddress, srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serving HTTP")
	case <-ctx.Done():
	}

	logging.Logger.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down HTTP server")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	var sample types.FoodSample
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&sample); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrapf(types.ErrMalformedSample, "decoding sample: %v", err))
		return
	}

	report, err := pipeline.Run(req.Context(), sample, s.cfg, s.deps)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case errors.Is(err, types.ErrMalformedSample):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleCatalogKinds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"kinds":   reference.Kinds,
		"regions": s.catalog.Regions(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, req *http.Request) {
	kind := chi.URLParam(req, "kind")
	rows, ok := s.catalog.Table(kind)
	if !ok {
		writeError(w, http.StatusNotFound, errors.WithHintf(
			errors.Newf("unknown catalog kind %q", kind),
			"valid kinds: %s", strings.Join(reference.Kinds, ", "),
		))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCatalogStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Stats())
}

func (s *Server) handleComposition(w http.ResponseWriter, req *http.Request) {
	report, err := interaction.Composition(s.catalog, chi.URLParam(req, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(types.SamplePresets))
	for name := range types.SamplePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]any{"preset": name, "sample": types.SamplePresets[name]})
	}
	writeJSON(w, http.StatusOK, out)
}

type errorBody struct {
	Error string   `json:"error"`
	Hints []string `json:"hints,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	if hint := errors.FlattenHints(err); hint != "" {
		body.Hints = strings.Split(hint, "\n--\n")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Warnw("writing response", logging.FieldError, err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		logging.Logger.Infow("request",
			logging.FieldMethod, req.Method,
			logging.FieldPath, req.URL.Path,
			logging.FieldStatus, ww.Status(),
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(req.Context()),
		)
	})
}
