// Package server is the thin HTTP surface over the index and the sync
// pipeline. Handlers translate requests to core operations and JSON; no
// algorithmic content lives here.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediadex/internal/database"
	"mediadex/internal/logging"
	"mediadex/internal/mediatypes"
	"mediadex/internal/syncer"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Server wires the query and sync operations to HTTP routes.
type Server struct {
	db   *database.Database
	sync *syncer.Syncer

	// treePath optionally locates the external folder hierarchy used for
	// recursive folder counts.
	treePath string
}

// New creates a Server. treePath may be empty; recursive folder counts then
// degrade to direct counts.
func New(db *database.Database, sync *syncer.Syncer, treePath string) *Server {
	return &Server{db: db, sync: sync, treePath: treePath}
}

// Router builds the route table with logging and metrics middleware applied.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(Logging())
	r.Use(Metrics())

	r.HandleFunc("/healthz", s.Health).Methods("GET")
	r.HandleFunc("/readyz", s.Ready).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", s.ListItems).Methods("GET")
	api.HandleFunc("/items/{id}", s.GetItem).Methods("GET")
	api.HandleFunc("/search", s.Search).Methods("GET")
	api.HandleFunc("/search/count", s.SearchCount).Methods("GET")
	api.HandleFunc("/search/size", s.SearchSize).Methods("GET")
	api.HandleFunc("/tags", s.Tags).Methods("GET")
	api.HandleFunc("/tags/counts", s.TagCounts).Methods("GET")
	api.HandleFunc("/folders/counts", s.FolderCounts).Methods("GET")
	api.HandleFunc("/sync", s.SyncStatus).Methods("GET")
	api.HandleFunc("/sync", s.StartSync).Methods("POST")

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseListOptions reads the common sort and pagination parameters.
func parseListOptions(r *http.Request) database.ListOptions {
	q := r.URL.Query()

	opts := database.ListOptions{
		SortField: mediatypes.SortField(q.Get("sort")),
		SortOrder: mediatypes.SortOrder(q.Get("order")),
		Limit:     defaultLimit,
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		if limit > maxLimit {
			limit = maxLimit
		}
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		opts.Offset = offset
	}
	if seed, err := strconv.ParseInt(q.Get("seed"), 10, 64); err == nil {
		opts.RandomSeed = seed
	}
	opts.Filter.Type = q.Get("type")
	opts.Filter.FolderID = q.Get("folderId")
	return opts
}
