package sidecar

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// writeLibrary lays out a temp library with the given sidecar records and
// returns a Store over it.
func writeLibrary(t testing.TB, records map[string]string) *Store {
	t.Helper()

	root := t.TempDir()
	itemsDir := filepath.Join(root, "items")
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		t.Fatalf("Failed to create items dir: %v", err)
	}

	for id, body := range records {
		dir := filepath.Join(itemsDir, id+DirSuffix)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create item dir %s: %v", id, err)
		}
		if body != "" {
			if err := os.WriteFile(filepath.Join(dir, RecordFileName), []byte(body), 0o644); err != nil {
				t.Fatalf("Failed to write sidecar %s: %v", id, err)
			}
		}
	}

	return NewStore(root)
}

func TestListItemIDs(t *testing.T) {
	t.Parallel()

	store := writeLibrary(t, map[string]string{
		"alpha": `{}`,
		"beta":  `{}`,
	})

	// Non-item clutter must be ignored
	if err := os.MkdirAll(filepath.Join(store.ItemsDir(), "not-an-item"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.ItemsDir(), "stray.media"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ids, err := store.ListItemIDs()
	if err != nil {
		t.Fatalf("ListItemIDs failed: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
		t.Errorf("ListItemIDs = %v, want [alpha beta]", ids)
	}
}

func TestListItemIDsMissingRoot(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "nope"))
	if _, err := store.ListItemIDs(); err == nil {
		t.Error("ListItemIDs with missing items dir should fail")
	}
}

func TestStatItem(t *testing.T) {
	t.Parallel()

	store := writeLibrary(t, map[string]string{"alpha": `{}`})

	stat := store.StatItem("alpha")
	if stat.Err != nil {
		t.Fatalf("StatItem(alpha) error: %v", stat.Err)
	}
	if stat.ModTime.IsZero() {
		t.Error("StatItem(alpha) returned zero mtime")
	}

	stat = store.StatItem("missing")
	if stat.Err == nil {
		t.Error("StatItem(missing) should carry an error")
	}
}

func TestReadRecord(t *testing.T) {
	t.Parallel()

	store := writeLibrary(t, map[string]string{
		"good": `{"name": "Photo", "ext": "jpg", "size": 100}`,
		"bad":  `{not json`,
		"none": "",
	})

	record, err := store.ReadRecord("good")
	if err != nil {
		t.Fatalf("ReadRecord(good) failed: %v", err)
	}
	if record.Name != "Photo" || record.Ext != "jpg" {
		t.Errorf("ReadRecord(good) = %+v", record)
	}

	if _, err := store.ReadRecord("bad"); err == nil {
		t.Error("ReadRecord(bad) should fail on malformed JSON")
	}
	if _, err := store.ReadRecord("none"); err == nil {
		t.Error("ReadRecord(none) should fail on missing sidecar")
	}
}

func TestLoadMtimeMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(dir)

	// Missing file: nil map, no error
	m, err := store.LoadMtimeMap(filepath.Join(dir, "mtimes.json"))
	if err != nil {
		t.Fatalf("LoadMtimeMap(missing) failed: %v", err)
	}
	if m != nil {
		t.Errorf("LoadMtimeMap(missing) = %v, want nil", m)
	}

	// Mixed value shapes: RFC 3339 string, epoch seconds, epoch millis,
	// numeric string, junk
	body := map[string]interface{}{
		"rfc":     "2024-06-01T10:00:00Z",
		"seconds": 1717236000,
		"millis":  1717236000000,
		"numstr":  "1717236000",
		"junk":    []int{1, 2},
	}
	data, _ := json.Marshal(body)
	path := filepath.Join(dir, "mtimes.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	m, err = store.LoadMtimeMap(path)
	if err != nil {
		t.Fatalf("LoadMtimeMap failed: %v", err)
	}
	if len(m) != 4 {
		t.Errorf("LoadMtimeMap parsed %d entries, want 4 (junk skipped)", len(m))
	}

	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, key := range []string{"rfc", "seconds", "millis", "numstr"} {
		if !m[key].Equal(want) {
			t.Errorf("m[%s] = %v, want %v", key, m[key], want)
		}
	}
	if _, present := m["junk"]; present {
		t.Error("unparseable entry was not skipped")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		wantOK bool
		want   time.Time
	}{
		{"rfc3339", "2024-06-01T10:00:00Z", true, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"epoch seconds", "1717236000", true, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"epoch millis", "1717236000000", true, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"padded", "  1717236000  ", true, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		{"empty", "", false, time.Time{}},
		{"garbage", "yesterday-ish", false, time.Time{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTimestamp(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
