// Package server exposes the daemon over HTTP: record queries, scan
// control, settings, catalog search, and a live event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"linkarr/internal/autoscan"
	"linkarr/internal/events"
	"linkarr/internal/logging"
	"linkarr/internal/records"
	"linkarr/internal/scanner"
	"linkarr/internal/settings"
	"linkarr/internal/tmdb"
)

// Catalog is the metadata surface the API needs; *tmdb.Client satisfies it.
type Catalog interface {
	SearchMovie(ctx context.Context, query string, year int) ([]tmdb.Candidate, error)
	SearchTV(ctx context.Context, query string, year int) ([]tmdb.Candidate, error)
	SearchMulti(ctx context.Context, query string, year int) ([]tmdb.Candidate, error)
	MovieDetails(ctx context.Context, id int64) (*tmdb.Candidate, error)
	TVDetails(ctx context.Context, id int64) (*tmdb.Candidate, error)
}

// Server is the daemon's HTTP API.
type Server struct {
	bind     string
	logger   *slog.Logger
	store    *records.Store
	settings *settings.Store
	scanner  *scanner.Scanner
	driver   *autoscan.Driver
	bus      *events.Bus
	catalog  Catalog

	mux      *http.ServeMux
	listener net.Listener
	server   *http.Server
}

// New wires the API over the given components. The autoscan driver and
// catalog may be nil; their endpoints then answer 503.
func New(bind string, store *records.Store, settingsStore *settings.Store, sc *scanner.Scanner, driver *autoscan.Driver, bus *events.Bus, catalog Catalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		bind:     bind,
		logger:   logging.WithComponent(logger, "api-server"),
		store:    store,
		settings: settingsStore,
		scanner:  sc,
		driver:   driver,
		bus:      bus,
		catalog:  catalog,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/stats", srv.handleStats)
	mux.HandleFunc("/api/events", srv.handleEvents)
	mux.HandleFunc("/api/scan", srv.handleScan)
	mux.HandleFunc("/api/records", srv.handleRecords)
	mux.HandleFunc("/api/records/", srv.handleRecordItem)
	mux.HandleFunc("/api/reprocess-all", srv.handleReprocessAll)
	mux.HandleFunc("/api/retry-failed", srv.handleRetryFailed)
	mux.HandleFunc("/api/cleanup-ignored", srv.handleCleanupIgnored)
	mux.HandleFunc("/api/settings", srv.handleSettings)
	mux.HandleFunc("/api/autoscan", srv.handleAutoScan)
	mux.HandleFunc("/api/autoscan/restart", srv.handleAutoScanRestart)
	mux.HandleFunc("/api/search", srv.handleSearch)
	mux.HandleFunc("/api/arr/test", srv.handleArrTest)
	srv.mux = mux

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving and shuts the listener down when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func trimAPIPath(r *http.Request, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
