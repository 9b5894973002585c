package logging

import (
	"fmt"
	"sync"
)

// Ring retains the most recent log lines for a bounded window.
// A sync run owns one Ring and surfaces its contents in progress reports;
// it is not a process-wide sink.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewRing creates a Ring holding at most capacity lines.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{lines: make([]string, capacity)}
}

// Append adds a formatted line, evicting the oldest when full.
func (r *Ring) Append(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Infof logs at info level and records the line in the ring.
func (r *Ring) Infof(format string, args ...interface{}) {
	Info(format, args...)
	r.Append(format, args...)
}

// Warnf logs at warn level and records the line in the ring.
func (r *Ring) Warnf(format string, args ...interface{}) {
	Warn(format, args...)
	r.Append(format, args...)
}

// Errorf logs at error level and records the line in the ring.
func (r *Ring) Errorf(format string, args ...interface{}) {
	Error(format, args...)
	r.Append(format, args...)
}

// Lines returns the retained lines in oldest-to-newest order.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	if r.full {
		out = append(out, r.lines[r.next:]...)
	}
	out = append(out, r.lines[:r.next]...)

	// Copy so callers can't observe later evictions.
	result := make([]string, len(out))
	copy(result, out)
	return result
}

// Reset clears all retained lines.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.lines {
		r.lines[i] = ""
	}
	r.next = 0
	r.full = false
}
