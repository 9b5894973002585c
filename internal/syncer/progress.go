package syncer

import (
	"sync"
	"time"

	"mediadex/internal/logging"
)

// Status is the sync state machine's current state. Transitions are strictly
// forward; a failed or completed run restarts from scanning.
type Status string

const (
	StatusIdle                 Status = "idle"
	StatusScanning             Status = "scanning"
	StatusAnalyzing            Status = "analyzing"
	StatusProcessing           Status = "processing"
	StatusWritingRelationships Status = "writing-relationships"
	StatusCompleted            Status = "completed"
	StatusFailed               Status = "failed"
)

// Maximum ETA considered worth reporting. Beyond this the estimate is noise.
const maxReportableETA = 24 * time.Hour

// Progress is a point-in-time snapshot of one sync run. Error is set only for
// fatal failures; soft failures surface through the counters and log lines.
type Progress struct {
	Status         Status   `json:"status"`
	Mode           Mode     `json:"mode,omitempty"`
	TotalItems     int      `json:"totalItems"`
	ProcessedItems int      `json:"processedItems"`
	Percent        float64  `json:"percent"`
	ETASeconds     int64    `json:"etaSeconds,omitempty"`
	ElapsedMs      int64    `json:"elapsedMs"`
	Errors         int      `json:"errors"`
	Skipped        int      `json:"skipped"`
	Deleted        int      `json:"deleted"`
	RecentLogLines []string `json:"recentLogLines,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Sink receives progress snapshots during a run. The caller owns it; the
// syncer never retains progress beyond the most recent snapshot.
type Sink func(Progress)

// tracker accumulates one run's counters and renders Progress snapshots.
// It is created fresh on every run entry.
type tracker struct {
	mu        sync.Mutex
	mode      Mode
	status    Status
	start     time.Time
	total     int
	processed int
	errors    int
	skipped   int
	deleted   int
	failure   string
	ring      *logging.Ring
	sink      Sink
}

func newTracker(mode Mode, sink Sink, ring *logging.Ring) *tracker {
	return &tracker{
		mode:   mode,
		status: StatusIdle,
		start:  time.Now(),
		ring:   ring,
		sink:   sink,
	}
}

// enter moves the run into a new state and emits a snapshot.
func (t *tracker) enter(status Status) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
	t.emit()
}

func (t *tracker) setTotal(n int) {
	t.mu.Lock()
	t.total = n
	t.mu.Unlock()
}

func (t *tracker) addProcessed(n int) {
	t.mu.Lock()
	t.processed += n
	t.mu.Unlock()
	t.emit()
}

func (t *tracker) addErrors(n int) {
	t.mu.Lock()
	t.errors += n
	t.mu.Unlock()
}

func (t *tracker) addSkipped(n int) {
	t.mu.Lock()
	t.skipped += n
	t.mu.Unlock()
}

func (t *tracker) setDeleted(n int) {
	t.mu.Lock()
	t.deleted = n
	t.mu.Unlock()
}

// fail marks the run fatally failed and emits the terminal snapshot.
func (t *tracker) fail(err error) {
	t.mu.Lock()
	t.status = StatusFailed
	t.failure = err.Error()
	t.mu.Unlock()
	t.emit()
}

func (t *tracker) emit() {
	if t.sink != nil {
		t.sink(t.snapshot())
	}
}

// snapshot renders the current Progress. ETA extrapolates observed
// throughput over the remaining count and is suppressed when throughput is
// zero or the estimate exceeds a sane bound.
func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.start)
	p := Progress{
		Status:         t.status,
		Mode:           t.mode,
		TotalItems:     t.total,
		ProcessedItems: t.processed,
		ElapsedMs:      elapsed.Milliseconds(),
		Errors:         t.errors,
		Skipped:        t.skipped,
		Deleted:        t.deleted,
		Error:          t.failure,
	}
	if t.ring != nil {
		p.RecentLogLines = t.ring.Lines()
	}
	if t.total > 0 {
		p.Percent = float64(t.processed) / float64(t.total) * 100
	}
	if t.processed > 0 && t.processed < t.total && elapsed > 0 {
		throughput := float64(t.processed) / elapsed.Seconds()
		if throughput > 0 {
			eta := time.Duration(float64(t.total-t.processed)/throughput) * time.Second
			if eta <= maxReportableETA {
				p.ETASeconds = int64(eta.Seconds())
			}
		}
	}
	return p
}
