// Package backtrace implements the bounded "N most recent records"
// recorder attached to each logger, grounded on
// original_source/base/backtracer.h. Every state transition and read
// is serialized by the recorder's own mutex, so callers need no
// external synchronization.
package backtrace

import (
	"sync"

	"github.com/corelogio/corelog/record"
	"github.com/corelogio/corelog/ring"
)

// Recorder captures the last N log records regardless of the owning
// logger's level threshold, so a caller can replay recent history
// around a problem even if none of it would otherwise have been
// admitted.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	buf     *ring.Buffer[*record.Owned]
}

// New returns a disabled Recorder.
func New() *Recorder {
	return &Recorder{buf: ring.New[*record.Owned](0)}
}

// Enable re-creates the ring with capacity n and marks the recorder
// enabled.
func (r *Recorder) Enable(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = ring.New[*record.Owned](n)
	r.enabled = true
}

// Disable marks the recorder disabled and clears any buffered
// records.
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	r.buf.Clear()
}

// Enabled reports whether the recorder currently captures records.
func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Push copies rec into the ring, overwriting the oldest entry once
// full, if the recorder is enabled. It is a no-op otherwise.
func (r *Recorder) Push(rec record.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	r.buf.PushBack(record.NewOwned(rec))
}

// Drain pops every buffered record in FIFO order and invokes f on
// each, leaving the ring empty. It is a no-op if the recorder is
// disabled.
func (r *Recorder) Drain(f func(record.Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	for {
		o, ok := r.buf.PopFront()
		if !ok {
			return
		}
		f(o.Record)
	}
}
