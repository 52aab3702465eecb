package sink

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/corelogio/corelog/record"
)

// isConcurrentSafeWriter reports whether w is known-safe for
// concurrent Write calls without external locking, letting Console
// skip its own mutex on the hot path.
func isConcurrentSafeWriter(w io.Writer) bool {
	if w == io.Discard {
		return true
	}
	_, ok := w.(*os.File)
	return ok
}

// Console is a Sink that writes formatted records to an io.Writer
// (os.Stdout by default). It owns a single mutex serializing writes
// to writers that are not already known to be concurrency-safe; it has
// no async queue of its own, since corelog's pool already provides one.
type Console struct {
	mu             sync.Mutex
	writer         io.Writer
	formatter      Formatter
	level          record.Level
	concurrentSafe bool
	buf            bytes.Buffer
}

// NewConsole returns a Console sink writing to w (os.Stdout if nil)
// using f (a new Text formatter if nil).
func NewConsole(w io.Writer, f Formatter) *Console {
	if w == nil {
		w = os.Stdout
	}
	if f == nil {
		f = NewText()
	}
	return &Console{
		writer:         w,
		formatter:      f,
		concurrentSafe: isConcurrentSafeWriter(w),
	}
}

func (c *Console) ShouldLog(level record.Level) bool { return level >= c.Level() }

func (c *Console) Level() record.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Console) SetLevel(level record.Level) {
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
}

func (c *Console) SetPattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.formatter.(*Text); ok {
		t.Prefix = pattern
		return
	}
	c.formatter = &Text{Prefix: pattern, TimestampFormat: "2006-01-02T15:04:05Z07:00"}
}

func (c *Console) SetFormatter(f Formatter) {
	c.mu.Lock()
	c.formatter = f
	c.mu.Unlock()
}

func (c *Console) Log(rec record.Record) error {
	if c.concurrentSafe {
		var local bytes.Buffer
		c.mu.Lock()
		f := c.formatter
		c.mu.Unlock()
		f.Format(&rec, &local)
		_, err := c.writer.Write(local.Bytes())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.formatter.Format(&rec, &c.buf)
	_, err := c.writer.Write(c.buf.Bytes())
	return err
}

func (c *Console) Flush() error {
	if f, ok := c.writer.(interface{ Sync() error }); ok {
		return f.Sync()
	}
	if f, ok := c.writer.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
