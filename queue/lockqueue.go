package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/record"
	"github.com/corelogio/corelog/ring"
)

// Lock is a mutex-and-condition-variable bounded MPMC queue: one
// global FIFO ring, one overflow policy, two condition variables
// (notEmpty/notFull) — the Go realization of original_source's
// block_queue.h. Unlike the C++ original, which exposes three
// separate enqueue methods, Lock folds them into one Enqueue whose
// behavior is selected by Policy.
type Lock struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond
	buf      *ring.Buffer[*record.Envelope]
	closed   bool

	Policy OverflowPolicy

	discardCount uint64 // atomic; DiscardNew drops
}

// NewLock returns a Lock queue with the given ring capacity and
// overflow policy.
func NewLock(capacity int, policy OverflowPolicy) *Lock {
	q := &Lock{
		buf:    ring.New[*record.Envelope](capacity),
		Policy: policy,
	}
	q.notEmpty.L = &q.mu
	q.notFull.L = &q.mu
	return q
}

func (q *Lock) Enqueue(ctx context.Context, env *record.Envelope) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errs.ErrPoolGone
	}

	switch q.Policy {
	case DiscardNew:
		if q.buf.Full() {
			atomic.AddUint64(&q.discardCount, 1)
			env.Resolve(errs.ErrFlushSignalLost)
			return nil
		}
		q.buf.PushBack(env)

	case OverwriteOldest:
		// ring.Buffer.PushBack already overwrites the oldest slot and
		// bumps its own counter when full; a displaced flush envelope
		// must still be resolved so its waiter does not block forever.
		if q.buf.Full() {
			if oldest, ok := q.buf.Front(); ok {
				oldest.Resolve(errs.ErrFlushSignalLost)
			}
		}
		q.buf.PushBack(env)

	default: // Block
		for q.buf.Full() && !q.closed {
			if done := ctx.Done(); done != nil {
				// sync.Cond has no context-aware wait; a watcher
				// goroutine broadcasts on cancellation so Wait
				// unblocks and re-checks ctx.Err() below.
				stop := q.watchCancel(ctx)
				q.notFull.Wait()
				stop()
			} else {
				q.notFull.Wait()
			}
			if err := ctx.Err(); err != nil && q.buf.Full() && !q.closed {
				return err
			}
		}
		if q.closed {
			return errs.ErrPoolGone
		}
		q.buf.PushBack(env)
	}

	q.notEmpty.Signal()
	return nil
}

// watchCancel spawns a goroutine that broadcasts notFull/notEmpty when
// ctx is done, returning a stop func to release it. Needed because
// sync.Cond.Wait blocks unconditionally and cannot watch a channel
// itself.
func (q *Lock) watchCancel(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.notFull.Broadcast()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (q *Lock) Dequeue(ctx context.Context) (*record.Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.Empty() && !q.closed {
		if err := ctx.Err(); err != nil {
			return nil, false
		}
		stop := q.watchCancel(ctx)
		q.notEmpty.Wait()
		stop()
		if err := ctx.Err(); err != nil && q.buf.Empty() && !q.closed {
			return nil, false
		}
	}
	if q.buf.Empty() {
		return nil, false
	}
	env, _ := q.buf.PopFront()
	q.notFull.Signal()
	return env, true
}

func (q *Lock) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for {
		env, ok := q.buf.PopFront()
		if !ok {
			break
		}
		env.Resolve(errs.ErrFlushSignalLost)
	}
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// DiscardCount returns the number of envelopes dropped by DiscardNew.
func (q *Lock) DiscardCount() uint64 { return atomic.LoadUint64(&q.discardCount) }

// OverwriteCount returns the number of envelopes evicted by
// OverwriteOldest.
func (q *Lock) OverwriteCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.OverwriteCount()
}

// Len reports the number of envelopes currently queued.
func (q *Lock) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Size()
}
