package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
	"code.hybscloud.com/spin"
	"golang.org/x/sync/semaphore"

	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/gid"
	"github.com/corelogio/corelog/record"
)

// Sharded is a set of lanes independent lock-free rings, each an
// lfq.MPMC[*record.Envelope], with producer-goroutine affinity:
// the first time a goroutine enqueues, it is assigned a lane by
// round-robin over a shared counter and sticks to that lane for
// every subsequent call, giving per-producer FIFO ordering without a
// single shared hot ring. Grounded on original_source's
// lockfree_concurrent_thread_pool.h, which assigns each producer
// thread a moodycamel::ProducerToken the same way (round-robin over
// producer_cnt_ mod threads_num_) and binds each worker thread to the
// one lane matching its own index.
//
// Each lfq.MPMC lane is physically bounded (laneCapacity, rounded up
// to a power of two by lfq.NewMPMC); Enqueue spin-retries against a
// transiently full lane rather than ever returning backpressure,
// which is the practical realization of an effectively-unbounded queue
// in a language without the reference implementation's dynamic
// segment allocation — a lane large enough in practice never actually
// blocks a producer for long.
type Sharded struct {
	lanes []*lfq.MPMC[*record.Envelope]
	avail []*semaphore.Weighted // per-lane items-available counter

	producerSeq atomix.Uint64
	tokenMu     sync.Mutex
	tokens      map[uint64]*producerToken // goroutine id -> assigned token

	closed  atomic.Bool
	closeCh chan struct{}
}

// producerToken pins one producer goroutine (or, once goroutine count
// exceeds the lane count, a group of goroutines sharing an id-keyed
// token) to a lane. using CAS-guards the rare case of two goroutines
// racing on a shared token; it is otherwise redundant with lfq.MPMC's
// own multi-producer safety and exists purely to preserve the
// design invariant that producer tokens are never used concurrently
// by two callers.
type producerToken struct {
	lane  int
	using atomic.Bool
}

// NewSharded returns a Sharded queue with the given lane count (one
// lane per eventual worker) and per-lane capacity.
func NewSharded(lanes, laneCapacity int) *Sharded {
	if lanes < 1 {
		lanes = 1
	}
	if laneCapacity < 2 {
		laneCapacity = 2
	}
	s := &Sharded{
		lanes:   make([]*lfq.MPMC[*record.Envelope], lanes),
		avail:   make([]*semaphore.Weighted, lanes),
		tokens:  make(map[uint64]*producerToken),
		closeCh: make(chan struct{}),
	}
	for i := range s.lanes {
		laneWeight := int64(laneCapacity) * 2
		s.lanes[i] = lfq.NewMPMC[*record.Envelope](laneCapacity)
		s.avail[i] = semaphore.NewWeighted(laneWeight)
		// Same pre-acquire trick as queue.LockFree's avail: start each
		// lane's counter fully held so nothing is acquirable until a
		// matching Enqueue on that lane releases one unit per item.
		if err := s.avail[i].Acquire(context.Background(), laneWeight); err != nil {
			panic("queue: pre-acquiring lane avail: " + err.Error())
		}
	}
	return s
}

// NumLanes returns the number of independent lanes.
func (s *Sharded) NumLanes() int { return len(s.lanes) }

func (s *Sharded) tokenFor(id uint64) *producerToken {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	if tok, ok := s.tokens[id]; ok {
		return tok
	}
	lane := int(s.producerSeq.AddAcqRel(1)-1) % len(s.lanes)
	for _, tok := range s.tokens {
		if tok.lane == lane {
			s.tokens[id] = tok
			return tok
		}
	}
	tok := &producerToken{lane: lane}
	s.tokens[id] = tok
	return tok
}

// Enqueue assigns the calling goroutine a lane on first use (sticky
// thereafter) and spin-retries until the lane admits env.
func (s *Sharded) Enqueue(ctx context.Context, env *record.Envelope) error {
	if s.closed.Load() {
		return errs.ErrPoolGone
	}
	tok := s.tokenFor(gid.Current())

	for !tok.using.CompareAndSwap(false, true) {
		// Only reachable once goroutine count exceeds lane count and
		// two producers share one token; back off and retry.
	}
	defer tok.using.Store(false)

	sw := spin.Wait{}
	for {
		if s.closed.Load() {
			return errs.ErrPoolGone
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.lanes[tok.lane].Enqueue(&env); err == nil {
			break
		}
		sw.Once()
	}
	s.avail[tok.lane].Release(1)
	return nil
}

// DequeueLane blocks until lane has an envelope, ctx is done, or the
// queue is closed. Workers call this with their own fixed lane index
// — the consumer-side half of the token affinity, bound at worker
// startup rather than inferred from goroutine identity.
func (s *Sharded) DequeueLane(ctx context.Context, lane int) (*record.Envelope, bool) {
	if err := s.acquireInterruptible(ctx, s.avail[lane]); err != nil {
		return nil, false
	}

	sw := spin.Wait{}
	for {
		env, err := s.lanes[lane].Dequeue()
		if err == nil {
			return env, true
		}
		sw.Once()
	}
}

// Dequeue round-robins across every lane starting from a shared
// cursor, for callers that have no fixed lane of their own. Pool
// workers should prefer DequeueLane.
func (s *Sharded) Dequeue(ctx context.Context) (*record.Envelope, bool) {
	for {
		start := int(s.producerSeq.AddAcqRel(1) - 1)
		for i := 0; i < len(s.lanes); i++ {
			lane := (start + i) % len(s.lanes)
			if env, err := s.lanes[lane].Dequeue(); err == nil {
				return env, true
			}
		}
		if s.closed.Load() {
			return nil, false
		}
		// Nothing ready anywhere; block on one lane's semaphore as a
		// wakeup signal, then retry the full sweep.
		if err := s.acquireInterruptible(ctx, s.avail[start%len(s.lanes)]); err != nil {
			return nil, false
		}
	}
}

// acquireInterruptible is queue.LockFree.acquireInterruptible's
// sibling: it blocks on sem.Acquire(ctx, 1) but also returns the
// instant Close fires, so Close never needs to Release more than a
// lane's semaphore currently holds.
func (s *Sharded) acquireInterruptible(ctx context.Context, sem *semaphore.Weighted) error {
	select {
	case <-s.closeCh:
		return errs.ErrPoolGone
	default:
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		select {
		case <-s.closeCh:
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

// Close wakes every blocked Enqueue/DequeueLane caller, then drains
// whatever is left in each lane, resolving any pending flush envelopes
// with errs.ErrFlushSignalLost rather than abandoning them.
func (s *Sharded) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.closeCh)

	for _, lane := range s.lanes {
		lane.Drain()
		for {
			env, err := lane.Dequeue()
			if err != nil {
				break
			}
			env.Resolve(errs.ErrFlushSignalLost)
		}
	}
}
