// Package pool implements the worker pool that drains one of the
// three queue families and dispatches each envelope to its logger.
// Grounded on original_source/base/thread_pool.cpp: a fixed set of
// worker goroutines launched at construction, each running the same
// start/process/stop loop, shut down by waking every blocked queue
// caller rather than by joining on an explicit terminate message —
// the Go idiom for the reference implementation's termination sentinel.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/queue"
	"github.com/corelogio/corelog/record"
)

// Family selects which queue.Queue implementation backs a Pool.
type Family uint8

const (
	// LockFamily uses queue.Lock: one global ring behind a mutex, with
	// a configurable overflow policy.
	LockFamily Family = iota
	// LockFreeFamily uses queue.LockFree: a bounded SCQ ring gated by
	// counting semaphores.
	LockFreeFamily
	// ShardedFamily uses queue.Sharded: one lane per worker, with
	// producer-goroutine affinity.
	ShardedFamily
)

const (
	minWorkers = 1
	maxWorkers = 1024

	defaultQueueCapacity = 8192
)

// Config configures a Pool. Workers must be in [1, 1024] — the same
// bound thread_pool.cpp enforces on threads_num.
type Config struct {
	Family Family
	// Workers is the number of dispatch goroutines. Required, 1-1024.
	Workers int
	// QueueCapacity is the ring size for LockFamily/LockFreeFamily, or
	// the per-lane capacity for ShardedFamily. Zero uses a default of
	// 8192, matching thread_pool.h's default_queue_size.
	QueueCapacity int
	// Policy governs LockFamily's behavior on a full queue; ignored by
	// the other two families, which never reject an Enqueue outright.
	Policy queue.OverflowPolicy
	// OnThreadStart and OnThreadStop, if set, run at the start and end
	// of every worker goroutine — the same hooks thread_pool's
	// constructor accepts for per-thread setup/teardown (e.g. naming
	// the OS thread, registering with a profiler).
	OnThreadStart func()
	OnThreadStop  func()
}

// Pool is a running worker pool bound to one queue family.
type Pool struct {
	cfg    Config
	q      queue.Queue   // set for LockFamily/LockFreeFamily
	sh     *queue.Sharded // set for ShardedFamily
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New validates cfg and starts cfg.Workers worker goroutines.
func New(cfg Config) (*Pool, error) {
	if cfg.Workers < minWorkers || cfg.Workers > maxWorkers {
		return nil, fmt.Errorf("%w: workers must be in [%d, %d], got %d", errs.ErrConfig, minWorkers, maxWorkers, cfg.Workers)
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{cfg: cfg, ctx: ctx, cancel: cancel}

	switch cfg.Family {
	case LockFamily:
		p.q = queue.NewLock(cfg.QueueCapacity, cfg.Policy)
	case LockFreeFamily:
		p.q = queue.NewLockFree(cfg.QueueCapacity)
	case ShardedFamily:
		p.sh = queue.NewSharded(cfg.Workers, cfg.QueueCapacity)
	default:
		cancel()
		return nil, fmt.Errorf("%w: unknown queue family %d", errs.ErrConfig, cfg.Family)
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.workerLoop(i)
	}
	return p, nil
}

func (p *Pool) workerLoop(index int) {
	defer p.wg.Done()
	if p.cfg.OnThreadStart != nil {
		p.cfg.OnThreadStart()
	}
	defer func() {
		if p.cfg.OnThreadStop != nil {
			p.cfg.OnThreadStop()
		}
	}()

	for p.processNext(index) {
	}
}

// processNext dequeues and dispatches one envelope. It returns false
// once the pool's queue reports closed, ending the worker's loop.
func (p *Pool) processNext(index int) bool {
	env, ok := p.dequeue(index)
	if !ok {
		return false
	}
	switch env.Kind {
	case record.KindLog:
		env.Logger.DispatchLog(env.Rec)
	case record.KindFlush:
		env.Logger.DispatchFlush()
		env.Resolve(nil)
	case record.KindTerminate:
		return false
	}
	return true
}

func (p *Pool) dequeue(index int) (*record.Envelope, bool) {
	if p.sh != nil {
		return p.sh.DequeueLane(p.ctx, index)
	}
	return p.q.Dequeue(p.ctx)
}

// EnqueueLog submits one log record for asynchronous dispatch through
// logger's sink chain.
func (p *Pool) EnqueueLog(logger record.Dispatcher, rec record.Record) error {
	return p.enqueue(record.NewLogEnvelope(logger, rec))
}

// EnqueueFlush submits a flush barrier and returns its completion
// channel: every record the caller enqueued on logger before this
// call is guaranteed written once a receive from the channel
// completes.
func (p *Pool) EnqueueFlush(logger record.Dispatcher) (<-chan error, error) {
	env := record.NewFlushEnvelope(logger)
	if err := p.enqueue(env); err != nil {
		return nil, err
	}
	return env.Done, nil
}

func (p *Pool) enqueue(env *record.Envelope) error {
	if p.closed.Load() {
		return errs.ErrPoolGone
	}
	if p.sh != nil {
		return p.sh.Enqueue(p.ctx, env)
	}
	return p.q.Enqueue(p.ctx, env)
}

// Close stops accepting new work, wakes every blocked queue caller,
// and waits for all worker goroutines to exit.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	if p.sh != nil {
		p.sh.Close()
	} else {
		p.q.Close()
	}
	p.cancel()
	p.wg.Wait()
}

// Counters is the capability a Lock-family pool exposes for
// observability: discard/overwrite counts that only make sense for a
// bounded ring with an overflow policy.
type Counters interface {
	DiscardCount() uint64
	OverwriteCount() uint64
}

// Counters returns the pool's Counters capability and true if its
// queue family implements one (LockFamily only).
func (p *Pool) Counters() (Counters, bool) {
	c, ok := p.q.(Counters)
	return c, ok
}
