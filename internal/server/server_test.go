package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mediadex/internal/database"
	"mediadex/internal/sidecar"
	"mediadex/internal/syncer"
)

// setupServer builds a Server over a seeded index and empty library.
func setupServer(t testing.TB) (*Server, *database.Database) {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "items"), 0o755); err != nil {
		t.Fatalf("Failed to create items dir: %v", err)
	}
	sync := syncer.New(db, sidecar.NewStore(root), syncer.Options{})

	return New(db, sync, ""), db
}

func seedItem(t testing.TB, db *database.Database, id, name string, size int64, tags []string, folders []string) {
	t.Helper()
	item := &database.Item{
		ID: id, Name: name, Ext: "jpg", Size: size, Type: "image",
		ContentHash: "hash-" + id,
	}
	if err := db.UpsertOne(context.Background(), item, tags, folders); err != nil {
		t.Fatalf("seed %s failed: %v", id, err)
	}
}

func doRequest(t testing.TB, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t testing.TB, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestGetItemEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, db := setupServer(t)
	seedItem(t, db, "photo-1", "Photo One", 100, []string{"sunset"}, nil)

	rec := doRequest(t, s, "GET", "/api/items/photo-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var item database.Item
	decodeBody(t, rec, &item)
	if item.ID != "photo-1" || item.Name != "Photo One" {
		t.Errorf("item = %+v", item)
	}

	rec = doRequest(t, s, "GET", "/api/items/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, want 404", rec.Code)
	}
}

func TestListItemsEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, db := setupServer(t)
	seedItem(t, db, "a", "Alpha", 10, nil, []string{"f-1"})
	seedItem(t, db, "b", "Beta", 20, nil, []string{"f-1"})
	seedItem(t, db, "c", "Gamma", 30, nil, []string{"f-2"})

	rec := doRequest(t, s, "GET", "/api/items?folderId=f-1&sort=name&order=asc")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Items      []database.Item `json:"items"`
		TotalItems int             `json:"totalItems"`
	}
	decodeBody(t, rec, &body)
	if body.TotalItems != 2 || len(body.Items) != 2 {
		t.Errorf("folder listing = %+v", body)
	}
	if body.Items[0].Name != "Alpha" {
		t.Errorf("sort not applied: %+v", body.Items)
	}
}

func TestSearchEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, db := setupServer(t)
	seedItem(t, db, "red-1", "red car parked", 100, []string{"red car"}, nil)
	seedItem(t, db, "red-2", "another red thing", 200, []string{"red car"}, nil)
	seedItem(t, db, "blue", "blue bike", 400, []string{"blue"}, nil)

	// Vocabulary-driven parse: "red car" is one tag, "parked" is content
	rec := doRequest(t, s, "GET", "/api/search?q=red+car+parked")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Items      []database.Item `json:"items"`
		TotalItems int             `json:"totalItems"`
		TagTerms   []string        `json:"tagTerms"`
	}
	decodeBody(t, rec, &body)
	if len(body.TagTerms) != 1 || body.TagTerms[0] != "red car" {
		t.Errorf("TagTerms = %v", body.TagTerms)
	}
	if body.TotalItems != 1 || body.Items[0].ID != "red-1" {
		t.Errorf("search result = %+v", body)
	}

	// Count and size agree with the listing for the same query
	rec = doRequest(t, s, "GET", "/api/search/count?q=red+car")
	var count map[string]int
	decodeBody(t, rec, &count)
	if count["count"] != 2 {
		t.Errorf("count = %v", count)
	}

	rec = doRequest(t, s, "GET", "/api/search/size?q=red+car")
	var size map[string]int64
	decodeBody(t, rec, &size)
	if size["totalSize"] != 300 {
		t.Errorf("totalSize = %v", size)
	}
}

func TestTagEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, db := setupServer(t)
	seedItem(t, db, "a", "A", 1, []string{"x", "y"}, nil)
	seedItem(t, db, "b", "B", 1, []string{"x"}, nil)

	rec := doRequest(t, s, "GET", "/api/tags")
	var tags []string
	decodeBody(t, rec, &tags)
	if len(tags) != 2 {
		t.Errorf("tags = %v", tags)
	}

	rec = doRequest(t, s, "GET", "/api/tags/counts")
	var counts []database.TagCount
	decodeBody(t, rec, &counts)
	if len(counts) != 2 || counts[0].Tag != "x" || counts[0].Count != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestFolderCountsEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, db := setupServer(t)
	seedItem(t, db, "p", "P", 1, nil, []string{"parent"})
	seedItem(t, db, "l1", "L1", 1, nil, []string{"left"})
	seedItem(t, db, "l2", "L2", 1, nil, []string{"left"})

	// Direct counts without a tree
	rec := doRequest(t, s, "GET", "/api/folders/counts")
	var counts map[string]int
	decodeBody(t, rec, &counts)
	if counts["parent"] != 1 || counts["left"] != 2 {
		t.Errorf("direct counts = %v", counts)
	}

	// Recursive counts over a configured tree
	treePath := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(treePath, []byte(`[{"id":"parent","children":[{"id":"left"}]}]`), 0o644); err != nil {
		t.Fatalf("write tree failed: %v", err)
	}
	s.treePath = treePath

	rec = doRequest(t, s, "GET", "/api/folders/counts?recursive=1")
	decodeBody(t, rec, &counts)
	if counts["parent"] != 3 {
		t.Errorf("recursive counts = %v, want parent=3", counts)
	}
}

func TestSyncEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, _ := setupServer(t)

	rec := doRequest(t, s, "GET", "/api/sync")
	var progress syncer.Progress
	decodeBody(t, rec, &progress)
	if progress.Status != syncer.StatusIdle {
		t.Errorf("initial status = %s", progress.Status)
	}

	rec = doRequest(t, s, "POST", "/api/sync?mode=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus mode status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, s, "POST", "/api/sync?mode=incremental")
	if rec.Code != http.StatusAccepted {
		t.Errorf("start status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, db := setupServer(t)
	seedItem(t, db, "a", "A", 1, []string{"t"}, nil)

	rec := doRequest(t, s, "GET", "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	var health struct {
		Status string              `json:"status"`
		Stats  database.IndexStats `json:"stats"`
	}
	decodeBody(t, rec, &health)
	if health.Status != "ok" || health.Stats.TotalItems != 1 {
		t.Errorf("health = %+v", health)
	}

	rec = doRequest(t, s, "GET", "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}
}
