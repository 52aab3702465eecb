// Package queue implements the three MPMC envelope queue families a
// worker pool can be configured with: Lock (a mutex-and-condition-
// variable bounded ring with a configurable overflow policy), LockFree
// (a bounded lock-free ring gated by counting semaphores so Dequeue
// still blocks), and Sharded (a set of independent lock-free lanes
// with producer-token affinity, trading a global FIFO guarantee for
// reduced cross-core contention).
//
// All three satisfy Queue, so a pool can be built against the
// interface and swap families without touching dispatch logic — the
// same shape as the reference queue family in original_source's
// thread_pool.h, which is templated on the same three backing queues.
package queue

import (
	"context"

	"github.com/corelogio/corelog/record"
)

// Queue is the capability every envelope queue family implements.
type Queue interface {
	// Enqueue submits env for delivery. It may block (Lock in
	// Block mode, LockFree and Sharded when transiently full)
	// or return immediately depending on family and policy.
	// Enqueue returns ctx.Err() if ctx is done before admission.
	Enqueue(ctx context.Context, env *record.Envelope) error
	// Dequeue blocks until an envelope is available, ctx is done, or
	// the queue is closed (in which case it returns false).
	Dequeue(ctx context.Context) (*record.Envelope, bool)
	// Close wakes every blocked Enqueue/Dequeue caller. Closing twice
	// is a no-op.
	Close()
}

// OverflowPolicy governs what queue.Lock does when a producer calls
// Enqueue against a full ring — the three policies original_source's
// block_queue.h supports via its overflow_policy enum.
type OverflowPolicy uint8

const (
	// Block makes Enqueue wait for room, exactly like a bounded
	// channel send.
	Block OverflowPolicy = iota
	// DiscardNew drops the incoming envelope and bumps a counter,
	// leaving the ring's existing contents untouched.
	DiscardNew
	// OverwriteOldest evicts the oldest queued envelope to make room,
	// resolving it with errs.ErrFlushSignalLost if it was a flush
	// barrier.
	OverwriteOldest
)
