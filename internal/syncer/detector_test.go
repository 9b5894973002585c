package syncer

import (
	"errors"
	"sort"
	"testing"
	"time"

	"mediadex/internal/sidecar"
)

var detectorEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// freshStat returns a DirStat older than the test epoch.
func freshStat() sidecar.DirStat {
	return sidecar.DirStat{ModTime: detectorEpoch.Add(-time.Hour)}
}

func staleStat() sidecar.DirStat {
	return sidecar.DirStat{ModTime: detectorEpoch.Add(time.Hour)}
}

// oldRecord is a recordMtime callback reporting sidecars older than epoch.
func oldRecord(string) (time.Time, error) {
	return detectorEpoch.Add(-time.Hour), nil
}

func TestClassifyPartition(t *testing.T) {
	t.Parallel()

	onDisk := []string{"new-1", "stale-dir", "stale-map", "stale-record", "same", "broken"}
	indexed := []string{"stale-dir", "stale-map", "stale-record", "same", "broken", "gone-1", "gone-2"}

	stats := map[string]sidecar.DirStat{
		"stale-dir":    staleStat(),
		"stale-map":    freshStat(),
		"stale-record": freshStat(),
		"same":         freshStat(),
		"broken":       {Err: errors.New("permission denied")},
	}

	d := &Detector{
		LastRefresh: detectorEpoch,
		MtimeMap:    map[string]time.Time{"stale-map": detectorEpoch.Add(time.Minute), "same": detectorEpoch.Add(-time.Minute)},
	}

	changes := d.Classify(onDisk, indexed, stats, func(id string) (time.Time, error) {
		if id == "stale-record" {
			return detectorEpoch.Add(time.Minute), nil
		}
		return oldRecord(id)
	})

	sortAll := func(s []string) []string { sort.Strings(s); return s }

	if got := sortAll(changes.New); len(got) != 1 || got[0] != "new-1" {
		t.Errorf("New = %v, want [new-1]", got)
	}
	wantModified := []string{"broken", "stale-dir", "stale-map", "stale-record"}
	if got := sortAll(changes.Modified); len(got) != 4 || got[0] != wantModified[0] || got[3] != wantModified[3] {
		t.Errorf("Modified = %v, want %v", got, wantModified)
	}
	if got := sortAll(changes.Unchanged); len(got) != 1 || got[0] != "same" {
		t.Errorf("Unchanged = %v, want [same]", got)
	}
	if got := sortAll(changes.Deleted); len(got) != 2 || got[0] != "gone-1" || got[1] != "gone-2" {
		t.Errorf("Deleted = %v, want [gone-1 gone-2]", got)
	}

	// The three classes partition the on-disk set exactly once each
	total := len(changes.New) + len(changes.Modified) + len(changes.Unchanged)
	if total != len(onDisk) {
		t.Errorf("classes cover %d of %d on-disk ids", total, len(onDisk))
	}
	seen := make(map[string]int)
	for _, class := range [][]string{changes.New, changes.Modified, changes.Unchanged} {
		for _, id := range class {
			seen[id]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("id %s classified %d times", id, n)
		}
	}
}

func TestClassifyNewNeverStaleChecked(t *testing.T) {
	t.Parallel()

	d := &Detector{LastRefresh: detectorEpoch}

	// recordMtime must not be consulted for unindexed ids
	changes := d.Classify([]string{"brand-new"}, nil, map[string]sidecar.DirStat{
		"brand-new": {Err: errors.New("stat failed")},
	}, func(id string) (time.Time, error) {
		t.Errorf("recordMtime called for new item %s", id)
		return time.Time{}, nil
	})

	if len(changes.New) != 1 || len(changes.Modified) != 0 {
		t.Errorf("changes = %+v, want only New", changes)
	}
}

func TestClassifyRecordStatErrorAssumesStale(t *testing.T) {
	t.Parallel()

	d := &Detector{LastRefresh: detectorEpoch}
	changes := d.Classify([]string{"a"}, []string{"a"}, map[string]sidecar.DirStat{"a": freshStat()},
		func(string) (time.Time, error) { return time.Time{}, errors.New("gone") })

	if len(changes.Modified) != 1 {
		t.Errorf("record stat error not treated as stale: %+v", changes)
	}
}

func TestClassifyZeroLastRefreshTreatsAllStale(t *testing.T) {
	t.Parallel()

	// Never synced: any real mtime is after the zero time
	d := &Detector{}
	changes := d.Classify([]string{"a"}, []string{"a"}, map[string]sidecar.DirStat{"a": freshStat()}, oldRecord)
	if len(changes.Modified) != 1 {
		t.Errorf("first sync should treat indexed items as stale: %+v", changes)
	}
}

func TestClassifyNilRecordMtime(t *testing.T) {
	t.Parallel()

	d := &Detector{LastRefresh: detectorEpoch}
	changes := d.Classify([]string{"a"}, []string{"a"}, map[string]sidecar.DirStat{"a": freshStat()}, nil)
	if len(changes.Unchanged) != 1 {
		t.Errorf("without a record callback, fresh stat should be unchanged: %+v", changes)
	}
}
