package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Integration tests for index operations with a real SQLite database

// setupTestDB creates a migrated test database backed by a temp file.
func setupTestDB(t testing.TB) *Database {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testItem returns a minimal valid item for tests. The name doubles as the id
// unless overridden.
func testItem(id string) *Item {
	return &Item{
		ID:          id,
		Name:        id,
		Ext:         "jpg",
		Size:        1024,
		Mtime:       "2024-01-15T10:00:00Z",
		Type:        "image",
		ContentHash: "hash-" + id,
	}
}

// mustUpsert writes one item with relationships or fails the test.
func mustUpsert(t testing.TB, db *Database, item *Item, tags, folders []string) {
	t.Helper()
	if err := db.UpsertOne(context.Background(), item, tags, folders); err != nil {
		t.Fatalf("UpsertOne(%s) failed: %v", item.ID, err)
	}
}

func TestNewDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Schema must be queryable immediately after New
	count, err := db.Count(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Count on fresh database failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Fresh database has %d items, want 0", count)
	}
}

func TestNewDatabaseMissingParentDir(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "does-not-exist", "test.db")
	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("New() with missing parent directory should fail")
	}
}

func TestBatchTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	if err := db.UpsertItem(tx, testItem("batch-1")); err != nil {
		t.Fatalf("UpsertItem failed: %v", err)
	}
	if err := db.EndBatch(tx, nil); err != nil {
		t.Fatalf("EndBatch commit failed: %v", err)
	}

	if _, err := db.GetByID(context.Background(), "batch-1"); err != nil {
		t.Errorf("Committed item not found: %v", err)
	}

	// Rollback path: the error must be returned and the write discarded
	tx, err = db.BeginBatch()
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	if err := db.UpsertItem(tx, testItem("batch-2")); err != nil {
		t.Fatalf("UpsertItem failed: %v", err)
	}
	sentinel := fmt.Errorf("sentinel failure")
	if err := db.EndBatch(tx, sentinel); !errors.Is(err, sentinel) {
		t.Errorf("EndBatch with error returned %v, want sentinel", err)
	}
	if _, err := db.GetByID(context.Background(), "batch-2"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Rolled-back item lookup returned %v, want sql.ErrNoRows", err)
	}
}

func TestCacheInfo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetCacheInfo(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetCacheInfo(missing) returned %v, want sql.ErrNoRows", err)
	}

	if err := db.SetCacheInfo(ctx, CacheKeySourceMode, "incremental"); err != nil {
		t.Fatalf("SetCacheInfo failed: %v", err)
	}
	value, err := db.GetCacheInfo(ctx, CacheKeySourceMode)
	if err != nil {
		t.Fatalf("GetCacheInfo failed: %v", err)
	}
	if value != "incremental" {
		t.Errorf("GetCacheInfo = %q, want %q", value, "incremental")
	}

	// Overwrite
	if err := db.SetCacheInfo(ctx, CacheKeySourceMode, "rebuild"); err != nil {
		t.Fatalf("SetCacheInfo overwrite failed: %v", err)
	}
	value, _ = db.GetCacheInfo(ctx, CacheKeySourceMode)
	if value != "rebuild" {
		t.Errorf("GetCacheInfo after overwrite = %q, want %q", value, "rebuild")
	}
}

func TestLastRefreshRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastRefresh(ctx)
	if err != nil {
		t.Fatalf("GetLastRefresh on fresh database failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("GetLastRefresh on fresh database = %v, want zero time", got)
	}

	want := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	if err := db.SetLastRefresh(ctx, want); err != nil {
		t.Fatalf("SetLastRefresh failed: %v", err)
	}
	got, err = db.GetLastRefresh(ctx)
	if err != nil {
		t.Fatalf("GetLastRefresh failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("GetLastRefresh = %v, want %v", got, want)
	}
}

func TestVacuum(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	mustUpsert(t, db, testItem("v1"), nil, nil)

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}
