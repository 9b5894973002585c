package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mediadex/internal/logging"
)

const (
	// DirSuffix marks an item directory under the items root.
	DirSuffix = ".media"
	// RecordFileName is the sidecar file inside each item directory.
	RecordFileName = "metadata.json"
)

// DirStat is the result of statting one item directory. Err is carried
// instead of returned so a whole scan's stats can be collected in one pass;
// change detection treats a stat error as "assume stale".
type DirStat struct {
	ModTime time.Time
	Err     error
}

// Store reads the on-disk sidecar library. It is a leaf dependency: it never
// touches the index and holds no state beyond the root paths.
type Store struct {
	root     string
	itemsDir string
}

// NewStore creates a Store over the given library root. The root is expected
// to contain an items/ directory; Validate in the config package checks that
// before a sync starts.
func NewStore(root string) *Store {
	return &Store{
		root:     root,
		itemsDir: filepath.Join(root, "items"),
	}
}

// ItemsDir returns the directory holding the item directories.
func (s *Store) ItemsDir() string {
	return s.itemsDir
}

// ListItemIDs enumerates every item id currently on disk. An item is a
// directory named <id>.media directly under the items root; anything else is
// ignored.
func (s *Store) ListItemIDs() ([]string, error) {
	entries, err := os.ReadDir(s.itemsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items directory %s: %w", s.itemsDir, err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, DirSuffix) {
			continue
		}
		id := strings.TrimSuffix(name, DirSuffix)
		if id == "" {
			logging.Warn("Skipping item directory with empty id: %s", name)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ItemDir returns the directory path for one item id.
func (s *Store) ItemDir(id string) string {
	return filepath.Join(s.itemsDir, id+DirSuffix)
}

// RecordPath returns the sidecar file path for one item id.
func (s *Store) RecordPath(id string) string {
	return filepath.Join(s.ItemDir(id), RecordFileName)
}

// StatItem stats one item directory. The error, if any, travels inside the
// DirStat.
func (s *Store) StatItem(id string) DirStat {
	info, err := os.Stat(s.ItemDir(id))
	if err != nil {
		return DirStat{Err: err}
	}
	return DirStat{ModTime: info.ModTime()}
}

// ReadRecord reads and decodes one item's sidecar file.
func (s *Store) ReadRecord(id string) (*Record, error) {
	path := s.RecordPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar %s: %w", path, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar %s: %w", path, err)
	}
	return &record, nil
}

// LoadMtimeMap reads the optional bulk modification-time map, a single JSON
// object of item id to timestamp. A missing file is not an error; incremental
// detection simply proceeds without the short-circuit. Entries whose
// timestamps cannot be parsed are skipped with a warning.
func (s *Store) LoadMtimeMap(path string) (map[string]time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("No mtime map at %s", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read mtime map %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse mtime map %s: %w", path, err)
	}

	result := make(map[string]time.Time, len(raw))
	for id, value := range raw {
		t, ok := parseRawTimestamp(value)
		if !ok {
			logging.Warn("Skipping unparseable mtime map entry for %s", id)
			continue
		}
		result[id] = t
	}
	return result, nil
}

// ParseTimestamp interprets a library-supplied timestamp string. Accepted
// forms: RFC 3339, epoch seconds, epoch milliseconds (distinguished by
// magnitude). Returns false when the string is empty or unintelligible.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return epochToTime(f), true
	}
	return time.Time{}, false
}

func parseRawTimestamp(raw json.RawMessage) (time.Time, bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return ParseTimestamp(asString)
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return epochToTime(asNumber), true
	}
	return time.Time{}, false
}

// epochToTime converts an epoch value to time, treating large magnitudes as
// milliseconds and the rest as seconds.
func epochToTime(v float64) time.Time {
	if v >= 1e12 || v <= -1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}
