package server

import (
	"net/http"
	"time"

	"mediadex/internal/database"
	"mediadex/internal/logging"
)

// Health reports index statistics alongside liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.CalculateStats(r.Context())
	if err != nil {
		logging.Error("Health stats failed: %v", err)
		writeError(w, http.StatusInternalServerError, "unhealthy")
		return
	}

	if refresh, err := s.db.GetLastRefresh(r.Context()); err == nil && !refresh.IsZero() {
		stats.LastRefresh = refresh.UTC().Format(time.RFC3339)
	}

	s.db.UpdateDBMetrics()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"stats":  stats,
	})
}

// Ready reports whether the index is reachable.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := s.db.Count(r.Context(), database.Filter{}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "index unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
