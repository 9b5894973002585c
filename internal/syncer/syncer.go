package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"mediadex/internal/database"
	"mediadex/internal/logging"
	"mediadex/internal/metrics"
	"mediadex/internal/sidecar"
	"mediadex/internal/workers"
)

// Mode selects how much of the library a run re-reads.
type Mode string

const (
	// ModeFullRebuild truncates the index and re-reads every sidecar.
	ModeFullRebuild Mode = "full-rebuild"
	// ModeIncremental re-reads only items judged new or stale.
	ModeIncremental Mode = "incremental"
	// ModeForce re-reads every sidecar but keeps the index; unchanged
	// records are no-ops thanks to the content hash.
	ModeForce Mode = "force"
)

// ErrAlreadyRunning is returned when a run is requested while one is in
// flight. Runs are single-flight, never queued.
var ErrAlreadyRunning = errors.New("sync already running")

// ParseMode maps a user-supplied mode string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFullRebuild, ModeIncremental, ModeForce:
		return Mode(s), nil
	case "full", "rebuild":
		return ModeFullRebuild, nil
	case "":
		return ModeIncremental, nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

// Number of log lines retained per run for progress reporting.
const recentLogCapacity = 50

// Options tunes one Syncer. Zero worker counts derive ceilings from the host
// core count.
type Options struct {
	ChunkSize    int
	StatWorkers  int
	ParseWorkers int
	MtimeMapPath string
}

// Syncer drives the scan → analyze → process → write-relationships pipeline
// for all three modes. One Syncer serves the whole process; each Run gets
// fresh progress state.
type Syncer struct {
	db    *database.Database
	store *sidecar.Store
	opts  Options

	// batch commits one chunk transactionally. Defaults to the index
	// store's batch upsert; writeChunk falls back to per-row writes when
	// it fails.
	batch func(items []*database.Item) error

	mu      sync.Mutex
	running bool

	last atomic.Value // Progress
}

// New creates a Syncer over the given index and sidecar library.
func New(db *database.Database, store *sidecar.Store, opts Options) *Syncer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.StatWorkers <= 0 {
		opts.StatWorkers = workers.ForStat()
	}
	if opts.ParseWorkers <= 0 {
		opts.ParseWorkers = workers.ForParse()
	}
	s := &Syncer{db: db, store: store, opts: opts, batch: db.UpsertBatch}
	s.last.Store(Progress{Status: StatusIdle})
	return s
}

// IsRunning reports whether a run is currently in flight.
func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastProgress returns the most recent progress snapshot, from the current
// run if one is in flight, otherwise from the last finished run.
func (s *Syncer) LastProgress() Progress {
	return s.last.Load().(Progress)
}

// RunFullRebuild truncates and re-indexes the whole library.
func (s *Syncer) RunFullRebuild(ctx context.Context, sink Sink) (Progress, error) {
	return s.Run(ctx, ModeFullRebuild, sink)
}

// RunIncremental indexes only new and stale items.
func (s *Syncer) RunIncremental(ctx context.Context, sink Sink) (Progress, error) {
	return s.Run(ctx, ModeIncremental, sink)
}

// RunForce re-reads every sidecar without truncating.
func (s *Syncer) RunForce(ctx context.Context, sink Sink) (Progress, error) {
	return s.Run(ctx, ModeForce, sink)
}

// Run executes one sync in the given mode. Returns ErrAlreadyRunning if a
// run is in flight. The returned Progress is the terminal snapshot; sink, if
// non-nil, receives intermediate snapshots as the run advances.
func (s *Syncer) Run(ctx context.Context, mode Mode, sink Sink) (Progress, error) {
	if !s.tryStart() {
		return s.LastProgress(), ErrAlreadyRunning
	}
	defer s.finish()

	start := time.Now()
	metrics.SyncRunsTotal.WithLabelValues(string(mode)).Inc()
	metrics.SyncIsRunning.Set(1)
	defer func() {
		metrics.SyncIsRunning.Set(0)
		metrics.SyncLastRunTimestamp.SetToCurrentTime()
		metrics.SyncLastRunDuration.Set(time.Since(start).Seconds())
	}()

	ring := logging.NewRing(recentLogCapacity)
	t := newTracker(mode, s.recordingSink(sink), ring)

	if err := s.run(ctx, mode, t, ring); err != nil {
		t.fail(err)
		return t.snapshot(), err
	}

	t.enter(StatusCompleted)
	final := t.snapshot()
	ring.Infof("Sync completed: %d processed, %d skipped, %d errors, %d deleted in %s",
		final.ProcessedItems, final.Skipped, final.Errors, final.Deleted, time.Since(start).Round(time.Millisecond))
	return final, nil
}

func (s *Syncer) run(ctx context.Context, mode Mode, t *tracker, ring *logging.Ring) error {
	// Scanning: enumerate disk and index. A missing library layout is the
	// fatal class; nothing has been written yet.
	t.enter(StatusScanning)

	onDisk, err := s.store.ListItemIDs()
	if err != nil {
		return err
	}
	ring.Infof("Found %d items on disk", len(onDisk))

	indexed, err := s.db.AllItemIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexed items: %w", err)
	}

	lastRefresh, err := s.db.GetLastRefresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last refresh marker: %w", err)
	}

	mtimeMap, err := s.store.LoadMtimeMap(s.opts.MtimeMapPath)
	if err != nil {
		// The map is an optimization; fall back to per-item signals
		ring.Warnf("Ignoring unreadable mtime map: %v", err)
		mtimeMap = nil
	}

	stats := make([]sidecar.DirStat, len(onDisk))
	statFailures := RunBounded(ctx, onDisk, s.opts.StatWorkers, func(i int, id string) error {
		stats[i] = s.store.StatItem(id)
		return nil
	})
	// Units skipped on cancellation get a stat error, which downstream
	// treats as stale
	for _, f := range statFailures {
		stats[f.Index] = sidecar.DirStat{Err: f.Err}
	}
	statByID := make(map[string]sidecar.DirStat, len(onDisk))
	for i, id := range onDisk {
		statByID[id] = stats[i]
	}

	// Analyzing: decide what to read, what to delete
	t.enter(StatusAnalyzing)

	indexedSet := make(map[string]bool, len(indexed))
	for _, id := range indexed {
		indexedSet[id] = true
	}

	var toProcess, deleted []string
	switch mode {
	case ModeIncremental:
		detector := &Detector{LastRefresh: lastRefresh, MtimeMap: mtimeMap}
		changes := detector.Classify(onDisk, indexed, statByID, func(id string) (time.Time, error) {
			info, err := os.Stat(s.store.RecordPath(id))
			if err != nil {
				return time.Time{}, err
			}
			return info.ModTime(), nil
		})
		toProcess = append(changes.New, changes.Modified...)
		deleted = changes.Deleted
		ring.Infof("Change detection: %d new, %d modified, %d unchanged, %d deleted",
			len(changes.New), len(changes.Modified), len(changes.Unchanged), len(changes.Deleted))
	default:
		// Full rebuild and force both re-read everything
		toProcess = onDisk
		onDiskSet := make(map[string]bool, len(onDisk))
		for _, id := range onDisk {
			onDiskSet[id] = true
		}
		for _, id := range indexed {
			if !onDiskSet[id] {
				deleted = append(deleted, id)
			}
		}
	}
	t.setTotal(len(toProcess))

	// Vanished items go first, cascading to their relationship rows, so no
	// window exists where stale relationships reference reused ids.
	if mode == ModeFullRebuild {
		if err := s.db.Truncate(ctx); err != nil {
			return fmt.Errorf("failed to truncate index for rebuild: %w", err)
		}
		t.setDeleted(len(indexed))
		ring.Infof("Truncated index (%d items) for full rebuild", len(indexed))
	} else if len(deleted) > 0 {
		removed, err := s.db.RemoveByIDs(ctx, deleted)
		if err != nil {
			return fmt.Errorf("failed to remove vanished items: %w", err)
		}
		t.setDeleted(int(removed))
		metrics.SyncItemsDeleted.Add(float64(removed))
		ring.Infof("Removed %d vanished items", removed)
	}

	// Processing: sequential chunks, concurrent reads within each chunk.
	// Chunk k+1 starts only after chunk k's write committed or exhausted its
	// fallback; only one chunk's records are in memory at a time.
	t.enter(StatusProcessing)
	metrics.SyncParallelWorkers.Set(float64(s.opts.ParseWorkers))

	var tagPairs []database.TagPair
	var folderPairs []database.FolderPair
	var refreshIDs []string // previously indexed ids whose relations must be rewritten

	for chunkStart := 0; chunkStart < len(toProcess); chunkStart += s.opts.ChunkSize {
		end := chunkStart + s.opts.ChunkSize
		if end > len(toProcess) {
			end = len(toProcess)
		}
		chunk := toProcess[chunkStart:end]

		parsed := make([]*parsedRecord, len(chunk))
		parseFailures := RunBounded(ctx, chunk, s.opts.ParseWorkers, func(i int, id string) error {
			parsed[i] = s.readAndNormalize(id, mtimeMap)
			return nil
		})
		// Units skipped on cancellation left their slot nil; fill it so
		// they are counted as skipped like any other unreadable record
		for _, f := range parseFailures {
			parsed[f.Index] = &parsedRecord{id: chunk[f.Index], err: f.Err}
		}

		var items []*database.Item
		valid := make([]*parsedRecord, 0, len(parsed))
		for _, p := range parsed {
			if p.err != nil {
				ring.Warnf("Skipping %s: %v", p.id, p.err)
				t.addSkipped(1)
				metrics.SyncItemsSkipped.Inc()
				continue
			}
			items = append(items, p.item)
			valid = append(valid, p)
		}

		if err := s.writeChunk(ctx, items, valid, t, ring); err == nil {
			for _, p := range valid {
				// After a truncate there are no stale relations to clear
				if mode != ModeFullRebuild && indexedSet[p.item.ID] {
					refreshIDs = append(refreshIDs, p.item.ID)
				}
				for _, tag := range p.tags {
					tagPairs = append(tagPairs, database.TagPair{ItemID: p.item.ID, Tag: tag})
				}
				for _, folderID := range p.folders {
					folderPairs = append(folderPairs, database.FolderPair{ItemID: p.item.ID, FolderID: folderID})
				}
			}
		}

		t.addProcessed(len(chunk))
		metrics.SyncItemsProcessed.Add(float64(len(chunk)))
	}

	// Writing relationships: failures here are logged and counted, never
	// fatal; a full rebuild regenerates them.
	t.enter(StatusWritingRelationships)

	if len(refreshIDs) > 0 {
		if err := s.db.ClearRelationsFor(ctx, refreshIDs); err != nil {
			ring.Errorf("Failed to clear stale relationships: %v", err)
			t.addErrors(1)
			metrics.SyncErrors.Inc()
		}
	}
	if err := s.db.InsertTagPairs(ctx, tagPairs); err != nil {
		ring.Errorf("Failed to write tag relationships: %v", err)
		t.addErrors(1)
		metrics.SyncErrors.Inc()
	}
	if err := s.db.InsertFolderPairs(ctx, folderPairs); err != nil {
		ring.Errorf("Failed to write folder relationships: %v", err)
		t.addErrors(1)
		metrics.SyncErrors.Inc()
	}

	s.writeCacheInfo(ctx, mode, len(onDisk), ring)
	return nil
}

// parsedRecord is one item's read+normalize outcome inside a chunk.
type parsedRecord struct {
	id      string
	item    *database.Item
	tags    []string
	folders []string
	err     error
}

func (s *Syncer) readAndNormalize(id string, mtimeMap map[string]time.Time) *parsedRecord {
	record, err := s.store.ReadRecord(id)
	if err != nil {
		return &parsedRecord{id: id, err: err}
	}

	var override string
	if t, ok := mtimeMap[id]; ok {
		override = t.UTC().Format(time.RFC3339)
	}

	item, tags, folders, err := record.Normalize(id, override)
	if err != nil {
		return &parsedRecord{id: id, err: err}
	}
	return &parsedRecord{id: id, item: item, tags: tags, folders: folders}
}

// writeChunk commits one chunk transactionally, falling back to per-row
// writes when the batch fails. The fallback writes relationships inline, so
// the caller skips the deferred relationship pass for a fallen-back chunk; a
// partial chunk is acceptable at per-row granularity. Returns non-nil only
// when the fallback path was taken.
func (s *Syncer) writeChunk(ctx context.Context, items []*database.Item, valid []*parsedRecord, t *tracker, ring *logging.Ring) error {
	if len(items) == 0 {
		return nil
	}

	err := s.batch(items)
	if err == nil {
		return nil
	}

	ring.Warnf("Batch write of %d items failed, retrying row by row: %v", len(items), err)
	for _, p := range valid {
		if rowErr := s.db.UpsertOne(ctx, p.item, p.tags, p.folders); rowErr != nil {
			ring.Errorf("Failed to index %s: %v", p.item.ID, rowErr)
			t.addErrors(1)
			metrics.SyncErrors.Inc()
		}
	}
	return err
}

func (s *Syncer) writeCacheInfo(ctx context.Context, mode Mode, totalItems int, ring *logging.Ring) {
	now := time.Now()
	if err := s.db.SetLastRefresh(ctx, now); err != nil {
		ring.Warnf("Failed to record refresh time: %v", err)
	}
	if err := s.db.SetCacheInfo(ctx, database.CacheKeyTotalItems, strconv.Itoa(totalItems)); err != nil {
		ring.Warnf("Failed to record item count: %v", err)
	}
	if err := s.db.SetCacheInfo(ctx, database.CacheKeySourceMode, string(mode)); err != nil {
		ring.Warnf("Failed to record sync mode: %v", err)
	}
	if mode == ModeFullRebuild {
		if err := s.db.SetCacheInfo(ctx, database.CacheKeyLastRebuild, now.UTC().Format(time.RFC3339)); err != nil {
			ring.Warnf("Failed to record rebuild time: %v", err)
		}
	}
}

// recordingSink retains the latest snapshot for LastProgress and forwards to
// the caller's sink.
func (s *Syncer) recordingSink(sink Sink) Sink {
	return func(p Progress) {
		s.last.Store(p)
		if sink != nil {
			sink(p)
		}
	}
}

// tryStart attempts to claim the single run slot.
func (s *Syncer) tryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Syncer) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
