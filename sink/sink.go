// Package sink defines the Sink and Formatter contracts corelog treats
// as external collaborators, plus two concrete implementations corelog
// ships so the core is runnable end to end: Text (a formatter) and
// Console (a sink). Pattern compilation, ANSI color rendering, file
// rotation, and filesystem primitives remain out of scope — Console
// writes to an io.Writer it is simply handed, with no rotation policy
// of its own.
package sink

import (
	"bytes"

	"github.com/corelogio/corelog/record"
)

// Formatter renders a Record into an output buffer. Format may set
// rec's ColorStart/ColorEnd to demarcate a colored span for a
// downstream color-rendering collaborator; corelog's own Text
// formatter never does (ANSI rendering is out of scope).
type Formatter interface {
	Format(rec *record.Record, out *bytes.Buffer)
	// Clone returns a deep, independent copy of the formatter,
	// preserving any configuration.
	Clone() Formatter
}

// Sink is the end stage a logger's dispatch loop fans out to.
type Sink interface {
	// ShouldLog reports whether this sink admits records at level.
	ShouldLog(level record.Level) bool
	// Log writes rec. Errors are caught by the worker loop and routed
	// to package diag; Log must never panic.
	Log(rec record.Record) error
	// Flush synchronously flushes any buffered output.
	Flush() error
	// SetPattern recompiles the sink's pattern-derived formatter.
	// corelog's pattern support is intentionally minimal (pattern
	// compilation is out of scope): a pattern is just a literal prefix
	// written before each formatted record.
	SetPattern(pattern string)
	// SetFormatter overwrites the sink's formatter outright.
	SetFormatter(f Formatter)
	// Level returns the sink's own level threshold.
	Level() record.Level
	// SetLevel sets the sink's own level threshold.
	SetLevel(level record.Level)
}
