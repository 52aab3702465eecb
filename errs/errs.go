// Package errs defines the error taxonomy shared by every corelog
// package: producer-facing configuration errors, the pool-gone signal
// an async logger raises when its pool has disappeared, and the
// wrapper used to report sink failures without unwinding a worker.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers compare with errors.Is, never by value.
var (
	// ErrConfig marks an invalid configuration: an out-of-range worker
	// count or an unknown queue family passed to pool.New, or a corelog
	// facade call (NewLogger, Flush) made before a pool or a default
	// logger is set. Unknown logger names report ErrUnknownName instead.
	ErrConfig = errors.New("corelog: invalid configuration")

	// ErrDuplicateName is returned by Registry.RegisterLogger when the
	// name is already registered.
	ErrDuplicateName = errors.New("corelog: logger name already registered")

	// ErrUnknownName is returned by per-logger registry mutations
	// (SetPattern, SetLogLevel, SetFlushLevel) when the name is absent.
	ErrUnknownName = errors.New("corelog: unknown logger name")

	// ErrPoolGone is returned by an async logger's Log/Flush when its
	// weak pool reference no longer resolves, or resolves to a pool
	// that has already been closed.
	ErrPoolGone = errors.New("corelog: pool reference is gone")

	// ErrFlushSignalLost marks a flush envelope whose completion
	// channel was abandoned before firing, e.g. during pool shutdown.
	ErrFlushSignalLost = errors.New("corelog: flush signal lost during shutdown")
)

// SinkError wraps an error raised by a sink's Log or Flush call. The
// core catches these at the worker boundary and never lets them
// propagate out of a worker loop; see the diag package.
type SinkError struct {
	SinkIndex int
	Op        string // "Log" or "Flush"
	Err       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("corelog: sink[%d] %s failed: %v", e.SinkIndex, e.Op, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// NewSinkError builds a SinkError for the out-of-band handler.
func NewSinkError(sinkIndex int, op string, err error) *SinkError {
	return &SinkError{SinkIndex: sinkIndex, Op: op, Err: err}
}
