package server

import (
	"context"
	"errors"
	"net/http"

	"mediadex/internal/logging"
	"mediadex/internal/syncer"
)

// SyncStatus reports the latest progress snapshot, from the in-flight run if
// one exists.
func (s *Server) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sync.LastProgress())
}

// StartSync kicks off a sync run in the background. A run already in flight
// yields 409; the caller polls SyncStatus for progress.
func (s *Server) StartSync(w http.ResponseWriter, r *http.Request) {
	mode, err := syncer.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.sync.IsRunning() {
		writeError(w, http.StatusConflict, "sync already running")
		return
	}

	go func() {
		// The run outlives the request; progress is retained on the syncer
		if _, err := s.sync.Run(context.Background(), mode, nil); err != nil {
			if errors.Is(err, syncer.ErrAlreadyRunning) {
				return
			}
			logging.Error("Sync run (%s) failed: %v", mode, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"mode":   string(mode),
	})
}
