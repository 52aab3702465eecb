// Package corelog is the package-level convenience façade over the
// process-wide registry: InitializeThreadPool/NewLogger/SetDefault
// wire a pool and loggers into registry.Instance(), and the
// level-named functions (Info, Warn, ...) forward to whichever logger
// is currently the default. Unlike a single always-on default logger,
// corelog's pool can be absent, gone, or one of three queue families,
// so every package function degrades to a no-op or an errs.ErrConfig
// rather than assuming a default logger always exists.
package corelog

import (
	"github.com/corelogio/corelog/asynclogger"
	"github.com/corelogio/corelog/errs"
	"github.com/corelogio/corelog/pool"
	"github.com/corelogio/corelog/record"
	"github.com/corelogio/corelog/registry"
	"github.com/corelogio/corelog/sink"
)

// InitializeThreadPool starts a pool per cfg and registers it as the
// process-wide registry's shared pool. Call once at process startup,
// before NewLogger.
func InitializeThreadPool(cfg pool.Config) (*pool.Pool, error) {
	p, err := pool.New(cfg)
	if err != nil {
		return nil, err
	}
	registry.Instance().RegisterThreadPool(p)
	return p, nil
}

// NewLogger builds a logger named name against the registry's current
// pool, applies the registry's global pattern/formatter/levels to it,
// and registers it. Returns errs.ErrConfig if no pool has been
// initialized yet.
func NewLogger(name string, sinks []sink.Sink) (*asynclogger.Logger, error) {
	p := registry.Instance().Pool()
	if p == nil {
		return nil, errs.ErrConfig
	}
	l := asynclogger.New(name, sinks, p)
	if err := registry.Instance().InitializeLogger(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns the registered logger named name, or nil.
func Get(name string) *asynclogger.Logger { return registry.Instance().GetLogger(name) }

// Default returns the registry's default logger, or nil if none has
// been set with SetDefault.
func Default() *asynclogger.Logger { return registry.Instance().DefaultLogger() }

// SetDefault sets the registry's default logger.
func SetDefault(l *asynclogger.Logger) { registry.Instance().SetDefaultLogger(l) }

// Close stops the flush driver, unregisters every logger, and drops
// the registry's pool reference, stopping its worker goroutines.
func Close() { registry.Instance().Close() }

// FlushAll synchronously flushes every registered logger, returning
// the combined error of any that failed.
func FlushAll() error { return registry.Instance().FlushAll() }

// Trace logs msg at Trace level on the default logger. It is a no-op
// if no default logger has been set.
func Trace(msg string) { callDefault(func(l *asynclogger.Logger) { l.Trace(msg) }) }

// Debug logs msg at Debug level on the default logger.
func Debug(msg string) { callDefault(func(l *asynclogger.Logger) { l.Debug(msg) }) }

// Info logs msg at Info level on the default logger.
func Info(msg string) { callDefault(func(l *asynclogger.Logger) { l.Info(msg) }) }

// Warn logs msg at Warn level on the default logger.
func Warn(msg string) { callDefault(func(l *asynclogger.Logger) { l.Warn(msg) }) }

// Error logs msg at Error level on the default logger.
func Error(msg string) { callDefault(func(l *asynclogger.Logger) { l.Error(msg) }) }

// Critical logs msg at Critical level on the default logger.
func Critical(msg string) { callDefault(func(l *asynclogger.Logger) { l.Critical(msg) }) }

// Flush synchronously flushes the default logger's sink chain.
// Returns errs.ErrConfig if no default logger has been set.
func Flush() error {
	l := Default()
	if l == nil {
		return errs.ErrConfig
	}
	return l.Flush()
}

func callDefault(fn func(*asynclogger.Logger)) {
	if l := Default(); l != nil {
		fn(l)
	}
}

// Level re-exports record.Level so callers configuring a logger never
// need to import package record directly for the common case.
type Level = record.Level

const (
	LevelTrace    = record.Trace
	LevelDebug    = record.Debug
	LevelInfo     = record.Info
	LevelWarn     = record.Warn
	LevelError    = record.Error
	LevelCritical = record.Critical
	LevelOff      = record.Off
)
