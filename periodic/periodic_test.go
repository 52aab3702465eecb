package periodic

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFunction_RunsOnInterval(t *testing.T) {
	var calls atomic.Int64
	f := New(func() { calls.Add(1) }, 15*time.Millisecond)
	defer f.Stop()

	time.Sleep(200 * time.Millisecond)
	n := calls.Load()
	if n < 5 || n > 20 {
		t.Fatalf("expected roughly 13 calls in 200ms at a 15ms interval, got %d", n)
	}
}

func TestFunction_StopPreventsFurtherCalls(t *testing.T) {
	var calls atomic.Int64
	f := New(func() { calls.Add(1) }, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	f.Stop()
	n := calls.Load()

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != n {
		t.Fatalf("expected no calls after Stop, went from %d to %d", n, calls.Load())
	}
}

func TestFunction_StopIsIdempotent(t *testing.T) {
	f := New(func() {}, 10*time.Millisecond)
	f.Stop()
	f.Stop()
}

func TestFunction_ZeroIntervalNeverRuns(t *testing.T) {
	var calls atomic.Int64
	f := New(func() { calls.Add(1) }, 0)
	time.Sleep(30 * time.Millisecond)
	f.Stop()
	if calls.Load() != 0 {
		t.Fatalf("expected a non-positive interval to never run fn, got %d calls", calls.Load())
	}
}
