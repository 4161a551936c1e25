// Package server exposes batch fetches over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/docbatch/pkg/batch"
	"github.com/Sternrassler/docbatch/pkg/collections"
	"github.com/Sternrassler/docbatch/pkg/document"
	"github.com/Sternrassler/docbatch/pkg/fetch"
	"github.com/Sternrassler/docbatch/pkg/metrics"
)

// MaxIDs bounds how many identifiers one HTTP request may ask for.
const MaxIDs = 1000

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the document batch endpoints.
type Server struct {
	fetcher *fetch.Fetcher
	pinger  Pinger
	allow   func(collection string) bool
	logger  zerolog.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithPinger enables /ready checks against p.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithCollections restricts which collections may be queried.
// The default only allows the names in collections.Known.
func WithCollections(allow func(string) bool) Option {
	return func(s *Server) {
		if allow != nil {
			s.allow = allow
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server on top of f.
func New(f *fetch.Fetcher, opts ...Option) *Server {
	if f == nil {
		panic("fetcher cannot be nil")
	}
	s := &Server{
		fetcher: f,
		allow:   collections.IsKnown,
		logger:  log.With().Str("component", "server").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /collections/{name}/documents", s.documentsHandler)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting docbatch server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down docbatch server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "READY")
}

// orderedResponse aligns documents with the requested ids; misses are null.
type orderedResponse struct {
	Collection string            `json:"collection"`
	Requested  int               `json:"requested"`
	Found      int               `json:"found"`
	Documents  []document.Record `json:"documents"`
	Status     map[string]string `json:"status,omitempty"`
}

type mappingResponse struct {
	Collection string            `json:"collection"`
	Requested  int               `json:"requested"`
	Found      int               `json:"found"`
	Documents  document.Result   `json:"documents"`
	Status     map[string]string `json:"status,omitempty"`
}

func (s *Server) documentsHandler(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("name")
	if !s.allow(collection) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", collection))
		return
	}

	ids := parseIDs(r.URL.Query()["ids"])
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}
	if len(ids) > MaxIDs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d ids per request (got %d)", MaxIDs, len(ids)))
		return
	}

	ordered := true
	if v := r.URL.Query().Get("ordered"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ordered must be a boolean")
			return
		}
		ordered = b
	}
	withStatus, _ := strconv.ParseBool(r.URL.Query().Get("report"))

	report := s.fetcher.FetchReport(r.Context(), collection, ids)

	var status map[string]string
	if withStatus {
		status = make(map[string]string, len(report.Status))
		for id, st := range report.Status {
			status[id] = string(st)
		}
	}

	if ordered {
		writeJSON(w, http.StatusOK, orderedResponse{
			Collection: collection,
			Requested:  len(ids),
			Found:      len(report.Records),
			Documents:  batch.Project(report.Records, ids),
			Status:     status,
		})
		return
	}

	writeJSON(w, http.StatusOK, mappingResponse{
		Collection: collection,
		Requested:  len(ids),
		Found:      len(report.Records),
		Documents:  report.Records,
		Status:     status,
	})
}

// parseIDs accepts both ids=a,b and ids=a&ids=b, dropping empty entries.
func parseIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
