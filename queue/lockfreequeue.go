package queue

import (
	"context"
	"sync/atomic"

	"code.hybscloud.com/lfq"
	"code.hybscloud.com/spin"
	"golang.org/x/sync/semaphore"

	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/record"
)

// LockFree is a bounded MPMC queue backed by code.hybscloud.com/lfq's
// FAA-based SCQ implementation. lfq.MPMC.Enqueue/Dequeue are
// non-blocking (they return lfq.ErrWouldBlock instead of waiting), so
// LockFree pairs the ring with two counting semaphores — free and
// avail — that turn it into a blocking bounded queue: Enqueue acquires
// a free slot before writing, Dequeue acquires an
// available item before reading. Ordering across different producers
// is not guaranteed by the underlying SCQ algorithm; only a single
// producer's own enqueues are observed in the order it issued them.
type LockFree struct {
	ring  *lfq.MPMC[*record.Envelope]
	free  *semaphore.Weighted
	avail *semaphore.Weighted

	closed  atomic.Bool
	closeCh chan struct{}
}

// NewLockFree returns a LockFree queue holding at most capacity
// envelopes. Capacity is rounded up to the next power of two by
// lfq.NewMPMC.
func NewLockFree(capacity int) *LockFree {
	if capacity < 2 {
		capacity = 2
	}

	avail := semaphore.NewWeighted(int64(capacity))
	// avail must start with nothing available to acquire: no item has
	// been enqueued yet. semaphore.Weighted only lets a caller release
	// what it already holds, so the way to start a counting semaphore
	// at zero is to pre-acquire its entire weight up front; every
	// subsequent Enqueue then Releases one of those pre-held units
	// instead of releasing weight nobody ever acquired.
	if err := avail.Acquire(context.Background(), int64(capacity)); err != nil {
		panic("queue: pre-acquiring avail: " + err.Error())
	}

	return &LockFree{
		ring:    lfq.NewMPMC[*record.Envelope](capacity),
		free:    semaphore.NewWeighted(int64(capacity)),
		avail:   avail,
		closeCh: make(chan struct{}),
	}
}

func (q *LockFree) Enqueue(ctx context.Context, env *record.Envelope) error {
	if q.closed.Load() {
		return errs.ErrPoolGone
	}
	if err := q.acquireInterruptible(ctx, q.free); err != nil {
		return err
	}
	if q.closed.Load() {
		q.free.Release(1)
		return errs.ErrPoolGone
	}

	sw := spin.Wait{}
	for {
		if err := q.ring.Enqueue(&env); err == nil {
			break
		}
		// A free slot was reserved by the semaphore; any ErrWouldBlock
		// here is the ring momentarily catching up with a concurrent
		// dequeuer's slot repair, not genuine backpressure.
		sw.Once()
	}
	q.avail.Release(1)
	return nil
}

func (q *LockFree) Dequeue(ctx context.Context) (*record.Envelope, bool) {
	if err := q.acquireInterruptible(ctx, q.avail); err != nil {
		return nil, false
	}

	// Acquiring avail only ever succeeds against a unit a matching
	// Enqueue released, but a concurrent Close may drain that item
	// first, so the spin loop below gives up once the queue is closed.
	sw := spin.Wait{}
	for {
		env, err := q.ring.Dequeue()
		if err == nil {
			q.free.Release(1)
			return env, true
		}
		if q.closed.Load() {
			return nil, false
		}
		sw.Once()
	}
}

// acquireInterruptible blocks on sem.Acquire(ctx, 1) but also returns
// the instant Close fires, via a watcher goroutine that cancels a
// derived context — the same ctx-into-a-blocking-wait pattern
// queue.Lock's watchCancel uses for its condition variables. This
// keeps Close from ever needing to Release more than a semaphore
// currently holds, which golang.org/x/sync/semaphore.Weighted forbids.
func (q *LockFree) acquireInterruptible(ctx context.Context, sem *semaphore.Weighted) error {
	select {
	case <-q.closeCh:
		return errs.ErrPoolGone
	default:
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		select {
		case <-q.closeCh:
			cancel()
		case <-done:
		}
	}()

	err := sem.Acquire(waitCtx, 1)
	close(done)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errs.ErrPoolGone
}

// Close wakes every blocked Enqueue/Dequeue caller, then drains
// whatever is left in the ring, resolving any pending flush envelopes
// with errs.ErrFlushSignalLost rather than abandoning them — the same
// drain-on-close contract queue.Lock.Close honors. Further Enqueue
// calls fail with errs.ErrPoolGone; Dequeue returns false once the
// drain above has run.
func (q *LockFree) Close() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	close(q.closeCh)

	q.ring.Drain()
	for {
		env, err := q.ring.Dequeue()
		if err != nil {
			return
		}
		env.Resolve(errs.ErrFlushSignalLost)
	}
}
