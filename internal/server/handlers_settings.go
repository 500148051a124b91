package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"linkarr/internal/arr"
	"linkarr/internal/settings"
	"linkarr/internal/tmdb"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.settings.Current())
	case http.MethodPatch:
		var patch settings.Patch
		if !s.decodeBody(w, r, &patch) {
			return
		}
		updated, err := s.settings.Update(patch)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if patch.AffectsAutoScan() && s.driver != nil {
			s.driver.Restart()
		}
		s.writeJSON(w, http.StatusOK, updated)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAutoScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.driver == nil {
		s.writeError(w, http.StatusServiceUnavailable, "auto-scan not available")
		return
	}
	s.writeJSON(w, http.StatusOK, s.driver.Status())
}

func (s *Server) handleAutoScanRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.driver == nil {
		s.writeError(w, http.StatusServiceUnavailable, "auto-scan not available")
		return
	}
	s.driver.Restart()
	s.writeJSON(w, http.StatusOK, s.driver.Status())
}

type searchResponse struct {
	Results []tmdb.Candidate `json:"results"`
}

// handleSearch proxies catalog search for manual matching in clients.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.catalog == nil {
		s.writeError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	var (
		results []tmdb.Candidate
		err     error
	)
	switch tmdb.MediaType(r.URL.Query().Get("type")) {
	case tmdb.MediaTypeMovie:
		results, err = s.catalog.SearchMovie(r.Context(), query, year)
	case tmdb.MediaTypeTV:
		results, err = s.catalog.SearchTV(r.Context(), query, year)
	default:
		results, err = s.catalog.SearchMulti(r.Context(), query, year)
	}
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

type arrTestResult struct {
	Configured bool   `json:"configured"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// handleArrTest probes the configured Radarr and Sonarr instances with the
// credentials in the current settings document.
func (s *Server) handleArrTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	doc := s.settings.Current()
	response := map[string]arrTestResult{
		"radarr": testArr(r.Context(), arr.NewRadarr(doc.RadarrURL, doc.RadarrAPIKey)),
		"sonarr": testArr(r.Context(), arr.NewSonarr(doc.SonarrURL, doc.SonarrAPIKey)),
	}
	s.writeJSON(w, http.StatusOK, response)
}

func testArr(ctx context.Context, client *arr.Client) arrTestResult {
	if !client.Configured() {
		return arrTestResult{}
	}
	if err := client.TestConnection(ctx); err != nil {
		return arrTestResult{Configured: true, Error: err.Error()}
	}
	return arrTestResult{Configured: true, OK: true}
}
