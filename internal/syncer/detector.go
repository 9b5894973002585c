package syncer

import (
	"time"

	"mediadex/internal/logging"
	"mediadex/internal/sidecar"
)

// Changes is the outcome of change detection: three disjoint classes
// partitioning the on-disk id set, plus the ids present in the index but
// gone from disk.
type Changes struct {
	New       []string
	Modified  []string
	Unchanged []string
	Deleted   []string
}

// Detector classifies on-disk items against the index's last successful
// refresh. The bulk mtime map, when present, short-circuits per-item sidecar
// stat calls.
type Detector struct {
	LastRefresh time.Time
	MtimeMap    map[string]time.Time
}

// Classify partitions onDisk into new/modified/unchanged and computes the
// deleted set (indexed minus on-disk).
//
// Staleness is judged in order, first hit wins: the item directory's own
// mtime is newer than the last refresh; the bulk mtime map holds a newer
// entry; the sidecar file itself is newer (via recordMtime). An id not yet
// indexed is always new. Any stat error means "assume stale" so an unreadable
// item is re-read rather than silently skipped.
//
// Directory mtimes are a hint only: some filesystems do not touch the parent
// directory on in-place sidecar edits, and a false "unchanged" here is what
// the content hash in the upsert path ultimately guards against on force
// runs.
func (d *Detector) Classify(onDisk, indexed []string, stats map[string]sidecar.DirStat, recordMtime func(id string) (time.Time, error)) Changes {
	indexedSet := make(map[string]bool, len(indexed))
	for _, id := range indexed {
		indexedSet[id] = true
	}
	onDiskSet := make(map[string]bool, len(onDisk))

	var changes Changes
	for _, id := range onDisk {
		onDiskSet[id] = true

		if !indexedSet[id] {
			changes.New = append(changes.New, id)
			continue
		}
		if d.isStale(id, stats[id], recordMtime) {
			changes.Modified = append(changes.Modified, id)
		} else {
			changes.Unchanged = append(changes.Unchanged, id)
		}
	}

	for _, id := range indexed {
		if !onDiskSet[id] {
			changes.Deleted = append(changes.Deleted, id)
		}
	}

	return changes
}

func (d *Detector) isStale(id string, stat sidecar.DirStat, recordMtime func(id string) (time.Time, error)) bool {
	if stat.Err != nil {
		logging.Debug("Stat failed for %s, assuming stale: %v", id, stat.Err)
		return true
	}
	if stat.ModTime.After(d.LastRefresh) {
		return true
	}
	if t, ok := d.MtimeMap[id]; ok && t.After(d.LastRefresh) {
		return true
	}
	if recordMtime != nil {
		t, err := recordMtime(id)
		if err != nil {
			logging.Debug("Sidecar stat failed for %s, assuming stale: %v", id, err)
			return true
		}
		if t.After(d.LastRefresh) {
			return true
		}
	}
	return false
}
