// Package asynclogger implements the producer/consumer async logger:
// its public methods run on a producer's own goroutine and enqueue
// work onto a pool.Pool;
// DispatchLog/DispatchFlush run on a worker goroutine once that work
// is dequeued. Grounded on original_source's async_logger.h (the
// producer-side sink_log_/flush_sink_ pair that locks a weak thread
// pool handle) layered over logger.h (the shared name/sinks/levels/
// pattern/tracer state every logger variant carries).
package asynclogger

import (
	"weak"

	"github.com/corelogio/corelog/backtrace"
	"github.com/corelogio/corelog/clock"
	"github.com/corelogio/corelog/diag"
	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/gid"
	"github.com/corelogio/corelog/pool"
	"github.com/corelogio/corelog/record"
	"github.com/corelogio/corelog/sink"

	"sync"
	"sync/atomic"
)

// Logger is one named destination: a sink chain, a level threshold, a
// flush threshold, an optional bounded backtrace recorder, and a weak
// reference to the pool that actually performs I/O. The weak
// reference is the Go realization of async_logger's
// std::weak_ptr<thread_pool>: it observes the pool's lifetime without
// keeping it alive, so a registry can drop its one strong pool.Pool
// reference and have every logger built against it start reporting
// errs.ErrPoolGone instead of leaking the pool indefinitely.
type Logger struct {
	name string
	pool weak.Pointer[pool.Pool]

	mu         sync.RWMutex
	sinks      []sink.Sink
	pattern    string
	tracer     *backtrace.Recorder
	logLevel   atomic.Int32
	flushLevel atomic.Int32
}

// New returns a Logger named name, writing to sinks, dispatching
// through p. Default log level is Info and default flush level is Off
// (never auto-flush), matching logger.h's defaults.
func New(name string, sinks []sink.Sink, p *pool.Pool) *Logger {
	l := &Logger{
		name:    name,
		pool:    weak.Make(p),
		sinks:   append([]sink.Sink(nil), sinks...),
		pattern: "%+",
	}
	l.logLevel.Store(int32(record.Info))
	l.flushLevel.Store(int32(record.Off))
	return l
}

// Name returns the logger's name.
func (l *Logger) Name() string { return l.name }

// LogLevel returns the current admission threshold.
func (l *Logger) LogLevel() record.Level { return record.Level(l.logLevel.Load()) }

// SetLogLevel sets the admission threshold.
func (l *Logger) SetLogLevel(level record.Level) { l.logLevel.Store(int32(level)) }

// FlushLevel returns the current auto-flush threshold.
func (l *Logger) FlushLevel() record.Level { return record.Level(l.flushLevel.Load()) }

// SetFlushLevel sets the auto-flush threshold. record.Off disables
// auto-flush entirely.
func (l *Logger) SetFlushLevel(level record.Level) { l.flushLevel.Store(int32(level)) }

// Sinks returns a snapshot of the logger's sink chain.
func (l *Logger) Sinks() []sink.Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]sink.Sink(nil), l.sinks...)
}

// SetPattern applies pattern to every sink in the chain.
func (l *Logger) SetPattern(pattern string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pattern = pattern
	for _, s := range l.sinks {
		s.SetPattern(pattern)
	}
}

// SetFormatter applies f (cloned per sink) to every sink in the chain.
func (l *Logger) SetFormatter(f sink.Formatter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sinks {
		s.SetFormatter(f.Clone())
	}
}

// EnableBacktrace starts recording the last n admitted-for-trace
// records, regardless of the logger's own level threshold.
func (l *Logger) EnableBacktrace(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracer == nil {
		l.tracer = backtrace.New()
	}
	l.tracer.Enable(n)
}

// DisableBacktrace stops recording and releases the backlog.
func (l *Logger) DisableBacktrace() {
	l.mu.RLock()
	t := l.tracer
	l.mu.RUnlock()
	if t != nil {
		t.Disable()
	}
}

// DumpBacktrace drains the backtrace recorder straight to the sink
// chain, bypassing the level threshold (the same as logger.h's
// dump_backtrace, which calls sink_log_ directly on the synchronous
// caller's goroutine rather than going back through the pool).
func (l *Logger) DumpBacktrace() {
	l.mu.RLock()
	t := l.tracer
	sinks := append([]sink.Sink(nil), l.sinks...)
	l.mu.RUnlock()
	if t == nil {
		return
	}
	t.Drain(func(rec record.Record) {
		for _, s := range sinks {
			if s.ShouldLog(rec.Level) {
				if err := s.Log(rec); err != nil {
					diag.Report(l.name, err, rec.Time.UnixNano())
				}
			}
		}
	})
}

// Clone returns a new Logger named newName sharing this logger's sink
// chain, pattern, levels, backtrace recorder, and pool — the Go
// realization of async_logger::clone, which copy-constructs a new
// shared_ptr<async_logger> that shares the same sinks vector and
// weak_ptr<thread_pool>.
func (l *Logger) Clone(newName string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c := &Logger{
		name:    newName,
		pool:    l.pool,
		sinks:   append([]sink.Sink(nil), l.sinks...),
		pattern: l.pattern,
		tracer:  l.tracer,
	}
	c.logLevel.Store(l.logLevel.Load())
	c.flushLevel.Store(l.flushLevel.Load())
	return c
}

func (l *Logger) shouldLog(level record.Level) bool { return level >= l.LogLevel() }

func (l *Logger) shouldFlush(level record.Level) bool {
	fl := l.FlushLevel()
	return level >= fl && level != record.Off
}

func (l *Logger) tracerEnabled() bool {
	l.mu.RLock()
	t := l.tracer
	l.mu.RUnlock()
	return t != nil && t.Enabled()
}

// Log is the producer-side entry point every level-specific helper
// (Trace, Debug, ...) funnels through. It builds a Record, feeds the
// backtrace recorder unconditionally when one is enabled, and — only
// if level clears the logger's own threshold — enqueues the record on
// the pool. A gone pool is reported to package diag rather than
// returned, matching the fire-and-forget shape of the reference
// implementation's sink_log_, which catches and logs rather than
// propagating an exception to the caller.
func (l *Logger) Log(loc record.SourceLoc, level record.Level, msg string) {
	logEnabled := l.shouldLog(level)
	btEnabled := l.tracerEnabled()
	if !logEnabled && !btEnabled {
		return
	}

	rec := record.Record{
		Time:       clock.Now(),
		Loc:        loc,
		Level:      level,
		LoggerName: l.name,
		Message:    msg,
		ThreadID:   gid.Current(),
	}

	if btEnabled {
		l.mu.RLock()
		t := l.tracer
		l.mu.RUnlock()
		t.Push(rec)
	}
	if !logEnabled {
		return
	}

	p := l.pool.Value()
	if p == nil {
		diag.Report(l.name, errs.ErrPoolGone, rec.Time.UnixNano())
		return
	}
	if err := p.EnqueueLog(l, rec); err != nil {
		diag.Report(l.name, err, rec.Time.UnixNano())
	}
}

func (l *Logger) Trace(msg string)    { l.Log(record.SourceLoc{}, record.Trace, msg) }
func (l *Logger) Debug(msg string)    { l.Log(record.SourceLoc{}, record.Debug, msg) }
func (l *Logger) Info(msg string)     { l.Log(record.SourceLoc{}, record.Info, msg) }
func (l *Logger) Warn(msg string)     { l.Log(record.SourceLoc{}, record.Warn, msg) }
func (l *Logger) Error(msg string)    { l.Log(record.SourceLoc{}, record.Error, msg) }
func (l *Logger) Critical(msg string) { l.Log(record.SourceLoc{}, record.Critical, msg) }

// Flush synchronously flushes every sink in the chain: it blocks the
// calling goroutine until a worker has drained every envelope this
// logger previously enqueued and flushed the sink chain.
func (l *Logger) Flush() error {
	p := l.pool.Value()
	if p == nil {
		return errs.ErrPoolGone
	}
	done, err := p.EnqueueFlush(l)
	if err != nil {
		return err
	}
	return <-done
}

// DispatchLog is the consumer-side half run by a pool worker: it
// writes rec to every admitting sink, then auto-flushes if rec's
// level warrants it. Sink errors are caught and routed to package
// diag so one failing sink never stalls a worker loop — the same
// try/catch-around-sink::log original_source's do_sink_log_ performs.
func (l *Logger) DispatchLog(rec record.Record) {
	l.mu.RLock()
	sinks := append([]sink.Sink(nil), l.sinks...)
	l.mu.RUnlock()

	for i, s := range sinks {
		if !s.ShouldLog(rec.Level) {
			continue
		}
		if err := s.Log(rec); err != nil {
			diag.Report(l.name, errs.NewSinkError(i, "Log", err), rec.Time.UnixNano())
		}
	}
	if l.shouldFlush(rec.Level) {
		l.DispatchFlush()
	}
}

// DispatchFlush is the consumer-side half of Flush: it flushes every
// sink in the chain, same as original_source's do_flush_sink_.
func (l *Logger) DispatchFlush() {
	l.mu.RLock()
	sinks := append([]sink.Sink(nil), l.sinks...)
	l.mu.RUnlock()

	for i, s := range sinks {
		if err := s.Flush(); err != nil {
			diag.Report(l.name, errs.NewSinkError(i, "Flush", err), clock.Now().UnixNano())
		}
	}
}
