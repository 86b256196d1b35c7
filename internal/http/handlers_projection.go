package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleProjection forecasts balances at ?target=YYYY-MM-DD. A target in
// the past yields an empty 200 body of null, mirroring the projector's
// nil result.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	target, err := parseTarget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.projectCached(r, target)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleProjectionExport serves the same projection as a downloadable
// JSON document.
func (s *Server) handleProjectionExport(w http.ResponseWriter, r *http.Request) {
	target, err := parseTarget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.projectCached(r, target)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	filename := fmt.Sprintf("projection_%s.json", target.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		slog.ErrorContext(r.Context(), "Export encoding failed", "error", err)
	}
}

func (s *Server) projectCached(r *http.Request, target time.Time) (any, error) {
	key := "projection:" + target.Format("2006-01-02")
	if result, hit := s.projectionCache.Get(key); hit {
		return result, nil
	}

	result, err := s.svc.Projections.Project(r.Context(), target)
	if err != nil {
		return nil, err
	}
	s.projectionCache.Set(key, result)
	return result, nil
}

func parseTarget(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("target")
	if raw == "" {
		return time.Time{}, errors.New("missing target date, want ?target=YYYY-MM-DD")
	}
	target, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("invalid target date, want YYYY-MM-DD")
	}
	return target, nil
}
