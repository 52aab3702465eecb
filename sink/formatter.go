package sink

import (
	"bytes"
	"strconv"
	"time"

	"github.com/corelogio/corelog/record"
)

// levelBrackets pre-formats each level's bracketed label so Format
// never builds one with fmt.Sprintf on the hot path.
var levelBrackets = [...]string{
	record.Trace:    " [TRACE] ",
	record.Debug:    " [DEBUG] ",
	record.Info:     " [INFO] ",
	record.Warn:     " [WARN] ",
	record.Error:    " [ERROR] ",
	record.Critical: " [CRITICAL] ",
	record.Off:      " [OFF] ",
}

// Text is the one formatter corelog ships: a human-readable line of
// timestamp, level, optional source location, goroutine id, logger
// name, and message. Prefix is the literal pattern string set by
// SetPattern (pattern compilation itself is out of scope); it is
// written before the timestamp on every line.
type Text struct {
	Prefix          string
	TimestampFormat string
	IncludeCaller   bool
	IncludeThreadID bool
}

// NewText returns a Text formatter with sensible defaults: RFC3339
// timestamps, no caller info.
func NewText() *Text {
	return &Text{TimestampFormat: time.RFC3339, IncludeThreadID: true}
}

// Format appends the rendered line to out. It never sets
// rec.ColorStart/ColorEnd — color rendering is left to an external
// collaborator.
func (f *Text) Format(rec *record.Record, out *bytes.Buffer) {
	if f.Prefix != "" {
		out.WriteString(f.Prefix)
	}

	out.Write(rec.Time.AppendFormat(out.AvailableBuffer(), f.TimestampFormat))

	if int(rec.Level) < len(levelBrackets) {
		out.WriteString(levelBrackets[rec.Level])
	} else {
		out.WriteString(" [UNKNOWN] ")
	}

	if f.IncludeCaller && rec.Loc.Defined {
		out.WriteByte('[')
		out.WriteString(rec.Loc.File)
		out.WriteByte(':')
		out.WriteString(strconv.Itoa(rec.Loc.Line))
		out.WriteString("] ")
	}

	if f.IncludeThreadID {
		out.WriteString("[gid ")
		out.WriteString(strconv.FormatUint(rec.ThreadID, 10))
		out.WriteString("] ")
	}

	if rec.LoggerName != "" {
		out.WriteByte('[')
		out.WriteString(rec.LoggerName)
		out.WriteString("] ")
	}

	out.WriteString(rec.Message)
	out.WriteByte('\n')
}

// Clone returns an independent copy, preserving all configuration —
// a deep clone with custom flags preserved, matching the contract
// every Formatter collaborator must satisfy.
func (f *Text) Clone() Formatter {
	c := *f
	return &c
}
