// Package diag is the out-of-band error handler: a thread-safe sink
// for errors a worker catches at a sink boundary
// (SinkError) without unwinding the worker loop. It reports to stderr
// via zap, de-duplicates at most one report per monotonic nanosecond,
// and annotates each report with an incrementing sequence number.
//
// Reports go through go.uber.org/zap rather than the standard log
// package, giving each report structured fields instead of a single
// formatted string.
package diag

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger   = mustBuildLogger()
	sequence atomic.Int64
	lastNano atomic.Int64
)

func mustBuildLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		// zap's production config is self-contained and cannot fail to
		// build in practice; fall back to a no-op rather than letting a
		// diagnostics package panic the process that owns it.
		return zap.NewNop()
	}
	return l
}

// Report records err from the given component at monotonic time nowNano.
// Reports from the same nanosecond are deduplicated to at most one;
// every accepted report gets an incrementing sequence number.
//
// nowNano is supplied by the caller (rather than read internally) so
// tests can drive the dedup window deterministically.
func Report(component string, err error, nowNano int64) {
	if err == nil {
		return
	}
	prev := lastNano.Load()
	if prev == nowNano {
		return
	}
	if !lastNano.CompareAndSwap(prev, nowNano) {
		return
	}
	seq := sequence.Add(1)
	logger.Error("corelog sink error",
		zap.String("component", component),
		zap.Int64("seq", seq),
		zap.Int64("at_nanos", nowNano),
		zap.Error(err),
	)
}

// Sync flushes the underlying zap logger. Call during process
// shutdown; safe to ignore the error on platforms where stderr does
// not support fsync (zap's own documented caveat).
func Sync() error {
	return logger.Sync()
}
