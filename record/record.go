// Package record defines the unit of work that flows from a producing
// goroutine, through a queue, to a worker: the log Record value, its
// buffer-owning variant Owned, and the Envelope that wraps either a
// Log record or a Flush/Terminate control signal.
//
// corelog does not carry structured fields: a Record is a timestamp,
// an optional source location, a level, a logger name, a message, and
// the producing goroutine's identifier.
package record

import "time"

// Level is the severity of a Record, integer-ordered so that
// admission and flush-threshold checks are simple comparisons.
type Level int8

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Critical
	Off
)

// String returns the upper-case name of the level.
func (l Level) String() string {
	switch l {
	case Trace:
		return "TRACE"
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	case Off:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// SourceLoc is the optional file/line/function triple attached to a
// Record. Defined is false when the producer did not capture one.
type SourceLoc struct {
	File     string
	Line     int
	Function string
	Defined  bool
}

// Record is one log event. LoggerName and Message are plain Go
// strings — already immutable, already safe to share across
// goroutines — unlike the C++ string_view this type descends from, a
// bare Record needs no buffer-owning counterpart to cross a goroutine
// boundary safely. Owned (below) exists anyway, since the
// copy-and-rebase behavior it performs is itself a tested property,
// not merely an implementation detail of a memory-unsafe language.
type Record struct {
	Time       time.Time
	Loc        SourceLoc
	Level      Level
	LoggerName string
	Message    string
	ThreadID   uint64 // producing-goroutine identifier, see package gid

	// ColorStart/ColorEnd are byte offsets into a formatter's output
	// buffer demarcating a colored span. Zero until a formatter sets
	// them; corelog's own sink.Text formatter never sets them (ANSI
	// rendering is left to an external collaborator).
	ColorStart int
	ColorEnd   int
}
