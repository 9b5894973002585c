package server

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"mediadex/internal/database"
	"mediadex/internal/folders"
	"mediadex/internal/logging"
)

// ListItems is the plain scoped listing: optional folder and type scope,
// sort, pagination, no search terms.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	opts := parseListOptions(r)

	items, err := s.db.List(r.Context(), opts)
	if err != nil {
		logging.Error("List failed: %v", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if items == nil {
		items = []database.Item{}
	}

	count, err := s.db.Count(r.Context(), opts.Filter)
	if err != nil {
		logging.Error("Count failed: %v", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":      items,
		"totalItems": count,
		"limit":      opts.Limit,
		"offset":     opts.Offset,
	})
}

func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := s.db.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		logging.Error("GetByID(%s) failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.db.AllTags(r.Context())
	if err != nil {
		logging.Error("AllTags failed: %v", err)
		writeError(w, http.StatusInternalServerError, "tag listing failed")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) TagCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.TagCounts(r.Context())
	if err != nil {
		logging.Error("TagCounts failed: %v", err)
		writeError(w, http.StatusInternalServerError, "tag counts failed")
		return
	}
	if counts == nil {
		counts = []database.TagCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// FolderCounts returns per-folder item counts, recursive over the external
// hierarchy when one is configured and ?recursive is set, direct otherwise.
func (s *Server) FolderCounts(w http.ResponseWriter, r *http.Request) {
	direct, err := s.db.ItemCountsByFolder(r.Context())
	if err != nil {
		logging.Error("ItemCountsByFolder failed: %v", err)
		writeError(w, http.StatusInternalServerError, "folder counts failed")
		return
	}

	recursive := r.URL.Query().Get("recursive") != ""
	if recursive && s.treePath != "" {
		tree, err := folders.LoadTree(s.treePath)
		if err != nil {
			// Hierarchy unavailable: degrade to the flat fallback
			logging.Warn("Folder tree unavailable, using direct counts: %v", err)
			writeJSON(w, http.StatusOK, folders.DirectCounts(direct))
			return
		}
		writeJSON(w, http.StatusOK, folders.RecursiveCounts(tree, direct))
		return
	}

	writeJSON(w, http.StatusOK, folders.DirectCounts(direct))
}
