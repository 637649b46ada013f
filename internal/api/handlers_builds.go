package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleTriggerBuild(w http.ResponseWriter, r *http.Request) {
	b, err := s.orchestrator.Submit("api")
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	snap := b.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"build_id": snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/builds/%s", snap.ID),
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	buildID := chi.URLParam(r, "buildID")
	b := s.orchestrator.GetBuild(buildID)
	if b == nil {
		jsonError(w, "build not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
