package server

import (
	"net/http"

	"mediadex/internal/database"
	"mediadex/internal/logging"
	"mediadex/internal/query"
)

// searchFilter parses the q parameter against the current tag vocabulary and
// combines it with the scope parameters into one Filter.
func (s *Server) searchFilter(r *http.Request) (database.Filter, error) {
	vocab, err := s.db.AllTags(r.Context())
	if err != nil {
		return database.Filter{}, err
	}

	parsed := query.Parse(r.URL.Query().Get("q"), vocab)

	return database.Filter{
		ContentQuery: parsed.ContentQuery(),
		TagTerms:     parsed.TagTerms,
		Type:         r.URL.Query().Get("type"),
		FolderID:     r.URL.Query().Get("folderId"),
		TagContext:   r.URL.Query().Get("tagContext"),
	}, nil
}

func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := s.searchFilter(r)
	if err != nil {
		logging.Error("Search vocabulary load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	opts := parseListOptions(r)
	opts.Filter = filter

	items, err := s.db.Search(r.Context(), opts)
	if err != nil {
		logging.Error("Search failed: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if items == nil {
		items = []database.Item{}
	}

	count, err := s.db.Count(r.Context(), filter)
	if err != nil {
		logging.Error("Search count failed: %v", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":      items,
		"totalItems": count,
		"tagTerms":   filter.TagTerms,
		"limit":      opts.Limit,
		"offset":     opts.Offset,
	})
}

func (s *Server) SearchCount(w http.ResponseWriter, r *http.Request) {
	filter, err := s.searchFilter(r)
	if err != nil {
		logging.Error("Search vocabulary load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "count failed")
		return
	}

	count, err := s.db.Count(r.Context(), filter)
	if err != nil {
		logging.Error("Count failed: %v", err)
		writeError(w, http.StatusInternalServerError, "count failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) SearchSize(w http.ResponseWriter, r *http.Request) {
	filter, err := s.searchFilter(r)
	if err != nil {
		logging.Error("Search vocabulary load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "size failed")
		return
	}

	size, err := s.db.TotalSize(r.Context(), filter)
	if err != nil {
		logging.Error("TotalSize failed: %v", err)
		writeError(w, http.StatusInternalServerError, "size failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalSize": size})
}
