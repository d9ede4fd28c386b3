package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/UninstallAll/PhDAuto/internal/notion"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleDebugBackend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var root json.RawMessage
	if err := s.backend.Get(ctx, "/", nil, &root); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"root": root,
	})
}

func (s *Server) notionNotConfigured(w http.ResponseWriter) bool {
	if s.exporter != nil {
		return false
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    false,
		"error": "notion export is not configured",
	})
	return true
}

func (s *Server) handleDebugNotion(w http.ResponseWriter, r *http.Request) {
	if s.notionNotConfigured(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if err := s.exporter.Ping(ctx); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
	})
}

func (s *Server) handleDebugSearchDatabases(w http.ResponseWriter, r *http.Request) {
	if s.notionNotConfigured(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	dbs, err := s.exporter.SearchDatabases(ctx)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Count int               `json:"count"`
		DBs   []notion.Database `json:"dbs"`
	}{
		Count: len(dbs),
		DBs:   dbs,
	})
}
