package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleExtractStats(w http.ResponseWriter, r *http.Request) {
	stats := s.orchestrator.Stats()
	if stats == nil {
		jsonError(w, "extraction stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       stats.Snapshot(),
	}
	if site := s.orchestrator.Site(); site != nil {
		resp["build_id"] = site.BuildID
		resp["registry_entries"] = site.Registry.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
