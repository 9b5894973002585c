package syncer

import (
	"errors"
	"testing"
	"time"

	"mediadex/internal/logging"
)

func TestTrackerSnapshotCounters(t *testing.T) {
	t.Parallel()

	tr := newTracker(ModeIncremental, nil, nil)
	tr.enter(StatusProcessing)
	tr.setTotal(40)
	tr.addProcessed(10)
	tr.addErrors(2)
	tr.addSkipped(3)
	tr.setDeleted(4)

	p := tr.snapshot()
	if p.Status != StatusProcessing || p.Mode != ModeIncremental {
		t.Errorf("snapshot = %+v", p)
	}
	if p.TotalItems != 40 || p.ProcessedItems != 10 {
		t.Errorf("counts = %d/%d", p.ProcessedItems, p.TotalItems)
	}
	if p.Percent != 25 {
		t.Errorf("Percent = %v, want 25", p.Percent)
	}
	if p.Errors != 2 || p.Skipped != 3 || p.Deleted != 4 {
		t.Errorf("errors/skipped/deleted = %d/%d/%d", p.Errors, p.Skipped, p.Deleted)
	}
}

func TestTrackerSinkReceivesTransitions(t *testing.T) {
	t.Parallel()

	var states []Status
	tr := newTracker(ModeForce, func(p Progress) { states = append(states, p.Status) }, nil)

	tr.enter(StatusScanning)
	tr.enter(StatusAnalyzing)
	tr.enter(StatusProcessing)
	tr.enter(StatusWritingRelationships)
	tr.enter(StatusCompleted)

	want := []Status{StatusScanning, StatusAnalyzing, StatusProcessing, StatusWritingRelationships, StatusCompleted}
	if len(states) != len(want) {
		t.Fatalf("sink saw %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestTrackerFail(t *testing.T) {
	t.Parallel()

	tr := newTracker(ModeFullRebuild, nil, nil)
	tr.fail(errors.New("library root missing"))

	p := tr.snapshot()
	if p.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", p.Status)
	}
	if p.Error != "library root missing" {
		t.Errorf("Error = %q", p.Error)
	}
}

func TestTrackerETASuppression(t *testing.T) {
	t.Parallel()

	// No progress yet: no ETA
	tr := newTracker(ModeIncremental, nil, nil)
	tr.setTotal(100)
	if p := tr.snapshot(); p.ETASeconds != 0 {
		t.Errorf("ETA with zero throughput = %d", p.ETASeconds)
	}

	// Finished: no remaining work, no ETA
	tr.addProcessed(100)
	if p := tr.snapshot(); p.ETASeconds != 0 {
		t.Errorf("ETA when done = %d", p.ETASeconds)
	}

	// Absurd extrapolation is suppressed: 1 item in a long elapsed window
	// with millions remaining exceeds the reporting bound
	slow := newTracker(ModeIncremental, nil, nil)
	slow.start = time.Now().Add(-time.Hour)
	slow.setTotal(10_000_000)
	slow.mu.Lock()
	slow.processed = 1
	slow.mu.Unlock()
	if p := slow.snapshot(); p.ETASeconds != 0 {
		t.Errorf("absurd ETA not suppressed: %d", p.ETASeconds)
	}

	// A sane mid-run estimate is reported
	mid := newTracker(ModeIncremental, nil, nil)
	mid.start = time.Now().Add(-10 * time.Second)
	mid.setTotal(200)
	mid.mu.Lock()
	mid.processed = 100
	mid.mu.Unlock()
	p := mid.snapshot()
	if p.ETASeconds < 5 || p.ETASeconds > 20 {
		t.Errorf("ETASeconds = %d, want roughly 10", p.ETASeconds)
	}
}

func TestTrackerRingLines(t *testing.T) {
	t.Parallel()

	ring := logging.NewRing(3)
	tr := newTracker(ModeIncremental, nil, ring)

	ring.Append("one")
	ring.Append("two")
	ring.Append("three")
	ring.Append("four") // evicts "one"

	p := tr.snapshot()
	if len(p.RecentLogLines) != 3 {
		t.Fatalf("RecentLogLines = %v", p.RecentLogLines)
	}
	if p.RecentLogLines[0] != "two" || p.RecentLogLines[2] != "four" {
		t.Errorf("ring order = %v, want oldest to newest", p.RecentLogLines)
	}
}
