package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"linkarr/internal/logging"
	"linkarr/internal/records"
	"linkarr/internal/scanner"
)

type scanRequest struct {
	Directory string `json:"directory,omitempty"`
}

// handleScan kicks off a scan in the background; progress arrives over the
// event stream. A scan already in flight yields 409.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req scanRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if s.scanner.Running() {
		s.writeError(w, http.StatusConflict, scanner.ErrScanInProgress.Error())
		return
	}

	go func() {
		// Detached from the request context so the scan outlives the
		// response.
		if _, err := s.scanner.Scan(context.Background(), scanner.Options{Directory: req.Directory}); err != nil {
			if errors.Is(err, scanner.ErrScanInProgress) {
				return
			}
			s.logger.Warn("scan failed", logging.Error(err))
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleReprocessAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// Only unresolved records go back through the pipeline. Ignored records
	// leave that state by operator action alone.
	summary, err := s.scanner.ReprocessAll(r.Context(), records.StatusManual, records.StatusFailed)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.scanner.RetryFailed(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCleanupIgnored(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	removed, err := s.scanner.CleanupIgnored(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
