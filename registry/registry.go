// Package registry implements the process-wide singleton that tracks
// every named logger, the shared pool, and the periodic flush driver —
// the Go realization of original_source/base/registry.h/.cpp. It
// keeps the reference implementation's three independent mutexes
// (loggers, pool, flusher) rather than merging them into one, since
// registering a pool and registering a logger are genuinely
// independent operations that should not serialize against each other.
package registry

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/corelogio/corelog/asynclogger"
	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/periodic"
	"github.com/corelogio/corelog/pool"
	"github.com/corelogio/corelog/record"
	"github.com/corelogio/corelog/sink"
)

// Registry tracks every named logger, the process's pool, and an
// optional periodic flush driver.
type Registry struct {
	loggersMu        sync.Mutex
	globalPattern    string
	globalFormatter  sink.Formatter
	globalLogLevel   record.Level
	globalFlushLevel record.Level
	autoRegister     bool
	defaultLogger    *asynclogger.Logger
	loggers          map[string]*asynclogger.Logger

	poolMu     sync.Mutex
	sharedPool *pool.Pool

	flusherMu sync.Mutex
	flusher   *periodic.Function
}

// New returns a standalone Registry with the same defaults
// Instance's process-wide singleton starts with: pattern "%+", Info
// admission, Off auto-flush, auto-registration on. Most callers want
// Instance; New exists for tests and for embedders that deliberately
// want more than one independent registry in a process.
func New() *Registry {
	return &Registry{
		globalPattern:    "%+",
		globalLogLevel:   record.Info,
		globalFlushLevel: record.Off,
		autoRegister:     true,
		loggers:          make(map[string]*asynclogger.Logger),
		globalFormatter:  sink.NewText(),
	}
}

var (
	instance     *Registry
	instanceOnce sync.Once
)

// Instance returns the process-wide Registry, constructing it on
// first call — the Go realization of registry::instance()'s
// function-local static singleton.
func Instance() *Registry {
	instanceOnce.Do(func() {
		instance = New()
	})
	return instance
}

// SetAutoRegisterLogger controls whether InitializeLogger also
// registers the logger it configures.
func (r *Registry) SetAutoRegisterLogger(flag bool) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.autoRegister = flag
}

// InitializeLogger applies the registry's current global pattern,
// formatter, log level, and flush level to l, then registers it if
// auto-registration is enabled (the default).
func (r *Registry) InitializeLogger(l *asynclogger.Logger) error {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()

	l.SetFormatter(r.globalFormatter)
	l.SetPattern(r.globalPattern)
	l.SetLogLevel(r.globalLogLevel)
	l.SetFlushLevel(r.globalFlushLevel)

	if r.autoRegister {
		return r.registerLocked(l)
	}
	return nil
}

// RegisterLogger adds l to the registry under its own name.
// Returns errs.ErrDuplicateName if a logger with that name already exists.
func (r *Registry) RegisterLogger(l *asynclogger.Logger) error {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	return r.registerLocked(l)
}

func (r *Registry) registerLocked(l *asynclogger.Logger) error {
	if _, exists := r.loggers[l.Name()]; exists {
		return fmt.Errorf("%w: %q", errs.ErrDuplicateName, l.Name())
	}
	r.loggers[l.Name()] = l
	return nil
}

// GetLogger returns the logger named name, or nil if none is registered.
func (r *Registry) GetLogger(name string) *asynclogger.Logger {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	return r.loggers[name]
}

// RemoveLogger unregisters the logger named name. If it was the
// default logger, the default is cleared.
func (r *Registry) RemoveLogger(name string) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	delete(r.loggers, name)
	if r.defaultLogger != nil && r.defaultLogger.Name() == name {
		r.defaultLogger = nil
	}
}

// DefaultLogger returns the registry's default logger, or nil if none
// has been set.
func (r *Registry) DefaultLogger() *asynclogger.Logger {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	return r.defaultLogger
}

// SetDefaultLogger registers l (if non-nil) under its own name and
// sets it as the default.
func (r *Registry) SetDefaultLogger(l *asynclogger.Logger) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	if l != nil {
		r.loggers[l.Name()] = l
	}
	r.defaultLogger = l
}

// SetGlobalPattern sets the pattern every future InitializeLogger call
// applies, and immediately applies it to every currently registered
// logger — the same propagate-to-existing-loggers behavior as
// registry::set_global_pattern.
func (r *Registry) SetGlobalPattern(pattern string) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.globalPattern = pattern
	f := sink.NewText()
	f.Prefix = pattern
	r.globalFormatter = f
	for _, l := range r.loggers {
		l.SetFormatter(f)
	}
}

// SetGlobalFormatter sets the formatter every future InitializeLogger
// call applies (cloned per sink), and immediately applies a clone to
// every currently registered logger. When f is a *sink.Text, its
// Prefix also becomes the global pattern, keeping the two paired.
func (r *Registry) SetGlobalFormatter(f sink.Formatter) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.globalFormatter = f
	if t, ok := f.(*sink.Text); ok {
		r.globalPattern = t.Prefix
	}
	for _, l := range r.loggers {
		l.SetFormatter(f.Clone())
	}
}

// SetPattern sets the pattern on exactly the named logger.
// Returns errs.ErrUnknownName if no such logger is registered.
func (r *Registry) SetPattern(name, pattern string) error {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	l, ok := r.loggers[name]
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrUnknownName, name)
	}
	l.SetPattern(pattern)
	return nil
}

// SetLogLevel sets the admission level on exactly the named logger.
func (r *Registry) SetLogLevel(name string, level record.Level) error {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	l, ok := r.loggers[name]
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrUnknownName, name)
	}
	l.SetLogLevel(level)
	return nil
}

// SetGlobalLogLevel sets the admission level every future
// InitializeLogger call applies, and applies it to every currently
// registered logger immediately.
func (r *Registry) SetGlobalLogLevel(level record.Level) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.globalLogLevel = level
	for _, l := range r.loggers {
		l.SetLogLevel(level)
	}
}

// SetFlushLevel sets the auto-flush level on exactly the named logger.
func (r *Registry) SetFlushLevel(name string, level record.Level) error {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	l, ok := r.loggers[name]
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrUnknownName, name)
	}
	l.SetFlushLevel(level)
	return nil
}

// SetGlobalFlushLevel sets the auto-flush level every future
// InitializeLogger call applies, and applies it to every currently
// registered logger immediately.
func (r *Registry) SetGlobalFlushLevel(level record.Level) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.globalFlushLevel = level
	for _, l := range r.loggers {
		l.SetFlushLevel(level)
	}
}

// ExecAll runs fn against every registered logger while holding the
// loggers lock — a supplemented operation (original_source's
// exec_all) letting a caller perform an arbitrary batch configuration
// change atomically with respect to registration.
func (r *Registry) ExecAll(fn func(*asynclogger.Logger)) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	for _, l := range r.loggers {
		fn(l)
	}
}

// FlushAll synchronously flushes every registered logger, continuing
// past a failing one rather than stopping at the first. Returns the
// combined error of every failing Flush, via go.uber.org/multierr, or
// nil if every logger flushed cleanly.
func (r *Registry) FlushAll() error {
	r.loggersMu.Lock()
	loggers := make([]*asynclogger.Logger, 0, len(r.loggers))
	for _, l := range r.loggers {
		loggers = append(loggers, l)
	}
	r.loggersMu.Unlock()

	var err error
	for _, l := range loggers {
		err = multierr.Append(err, l.Flush())
	}
	return err
}

// RemoveAll unregisters every logger and clears the default.
func (r *Registry) RemoveAll() {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.loggers = make(map[string]*asynclogger.Logger)
	r.defaultLogger = nil
}

// FlushEvery starts (replacing any existing one) a periodic driver
// that calls FlushAll every interval.
func (r *Registry) FlushEvery(interval time.Duration) {
	r.flusherMu.Lock()
	defer r.flusherMu.Unlock()
	if r.flusher != nil {
		r.flusher.Stop()
	}
	r.flusher = periodic.New(func() { _ = r.FlushAll() }, interval)
}

// DisableFlushEvery stops the periodic flush driver, if any.
func (r *Registry) DisableFlushEvery() {
	r.flusherMu.Lock()
	defer r.flusherMu.Unlock()
	if r.flusher != nil {
		r.flusher.Stop()
		r.flusher = nil
	}
}

// RegisterThreadPool installs p as the registry's shared pool,
// releasing whichever pool it replaces: adopting a new pool always
// stops the previous one's worker goroutines rather than leaking them.
func (r *Registry) RegisterThreadPool(p *pool.Pool) {
	r.poolMu.Lock()
	old := r.sharedPool
	r.sharedPool = p
	r.poolMu.Unlock()

	if old != nil && old != p {
		old.Close()
	}
}

// Pool returns the registry's shared pool, or nil if none has been
// registered.
func (r *Registry) Pool() *pool.Pool {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	return r.sharedPool
}

// Close stops the periodic flush driver (if any), unregisters every
// logger, and drops the registry's strong reference to its pool. Any
// asynclogger.Logger built against that pool observes it as gone on
// its next producer call, exactly as the weak-reference design note
// intends.
func (r *Registry) Close() {
	r.flusherMu.Lock()
	if r.flusher != nil {
		r.flusher.Stop()
		r.flusher = nil
	}
	r.flusherMu.Unlock()

	r.RemoveAll()

	r.poolMu.Lock()
	if r.sharedPool != nil {
		r.sharedPool.Close()
		r.sharedPool = nil
	}
	r.poolMu.Unlock()
}
