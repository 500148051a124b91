package server

import (
	"net/http"
	"strconv"
	"strings"

	"linkarr/internal/records"
	"linkarr/internal/tmdb"
)

type recordListResponse struct {
	Records []*records.Record `json:"records"`
	Count   int               `json:"count"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts, ok := s.queryOptions(w, r)
	if !ok {
		return
	}
	list, err := s.store.Query(r.Context(), opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, recordListResponse{Records: list, Count: len(list)})
}

func (s *Server) handleRecordItem(w http.ResponseWriter, r *http.Request) {
	parts := trimAPIPath(r, "/api/records/")
	if len(parts) == 0 {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}

	if parts[0] == "grouped" {
		s.handleRecordsGrouped(w, r)
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getRecord(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.deleteRecord(w, r, id)
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.recordAction(w, r, id, parts[1])
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleRecordsGrouped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts, ok := s.queryOptions(w, r)
	if !ok {
		return
	}
	list, err := s.store.GroupByMedia(r.Context(), opts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, groupRecords(list))
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request, id int64) {
	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request, id int64) {
	removed, err := s.scanner.DeleteRecord(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) recordAction(w http.ResponseWriter, r *http.Request, id int64, action string) {
	switch action {
	case "ignore":
		record, err := s.scanner.IgnoreRecord(r.Context(), id)
		s.writeRecordResult(w, record, err)
	case "reprocess":
		record, err := s.scanner.ProcessRecord(r.Context(), id)
		s.writeRecordResult(w, record, err)
	case "match":
		s.manualMatch(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "unknown record action")
	}
}

func (s *Server) writeRecordResult(w http.ResponseWriter, record *records.Record, err error) {
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

type manualMatchRequest struct {
	TMDBID    int64  `json:"tmdb_id"`
	MediaType string `json:"media_type"`
}

func (s *Server) manualMatch(w http.ResponseWriter, r *http.Request, id int64) {
	if s.catalog == nil {
		s.writeError(w, http.StatusServiceUnavailable, "catalog not configured")
		return
	}
	var req manualMatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.TMDBID <= 0 {
		s.writeError(w, http.StatusBadRequest, "tmdb_id is required")
		return
	}

	var (
		candidate *tmdb.Candidate
		err       error
	)
	switch tmdb.MediaType(req.MediaType) {
	case tmdb.MediaTypeMovie:
		candidate, err = s.catalog.MovieDetails(r.Context(), req.TMDBID)
	case tmdb.MediaTypeTV:
		candidate, err = s.catalog.TVDetails(r.Context(), req.TMDBID)
	default:
		s.writeError(w, http.StatusBadRequest, "media_type must be movie or tv")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if candidate == nil {
		s.writeError(w, http.StatusNotFound, "catalog entry not found")
		return
	}

	record, err := s.scanner.ManualMatch(r.Context(), id, *candidate)
	s.writeRecordResult(w, record, err)
}

func (s *Server) queryOptions(w http.ResponseWriter, r *http.Request) (records.QueryOptions, bool) {
	query := r.URL.Query()
	opts := records.QueryOptions{
		Search: strings.TrimSpace(query.Get("search")),
	}
	if value := strings.TrimSpace(query.Get("status")); value != "" {
		if !records.ValidStatus(value) {
			s.writeError(w, http.StatusBadRequest, "invalid status filter")
			return records.QueryOptions{}, false
		}
		opts.Status = records.Status(value)
	}
	if value := strings.TrimSpace(query.Get("kind")); value != "" {
		if !records.ValidKind(value) {
			s.writeError(w, http.StatusBadRequest, "invalid kind filter")
			return records.QueryOptions{}, false
		}
		opts.Kind = records.MediaKind(value)
	}
	opts.Limit, _ = strconv.Atoi(query.Get("limit"))
	opts.Offset, _ = strconv.Atoi(query.Get("offset"))
	return opts, true
}
