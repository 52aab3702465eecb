package sink

import (
	"sync"
	"time"

	"github.com/corelogio/corelog/record"
)

// Counting is a test-and-benchmark sink that records every delivered
// Record and counts flushes, optionally sleeping for Delay on every
// Log call to simulate a slow destination for back-pressure tests.
type Counting struct {
	mu      sync.Mutex
	level   record.Level
	Delay   time.Duration
	records []record.Record
	flushes int
	FailLog bool // when true, Log always returns an error
}

func NewCounting() *Counting { return &Counting{} }

func (c *Counting) ShouldLog(level record.Level) bool { return level >= c.Level() }

func (c *Counting) Level() record.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Counting) SetLevel(level record.Level) {
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
}

func (c *Counting) SetPattern(string)      {}
func (c *Counting) SetFormatter(Formatter) {}

func (c *Counting) Log(rec record.Record) error {
	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailLog {
		return errCountingSinkFailure
	}
	c.records = append(c.records, rec)
	return nil
}

func (c *Counting) Flush() error {
	c.mu.Lock()
	c.flushes++
	c.mu.Unlock()
	return nil
}

// Records returns a snapshot of every record delivered so far.
func (c *Counting) Records() []record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]record.Record, len(c.records))
	copy(out, c.records)
	return out
}

// FlushCount returns the number of completed Flush calls.
func (c *Counting) FlushCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

var errCountingSinkFailure = countingSinkError{}

type countingSinkError struct{}

func (countingSinkError) Error() string { return "sink: counting sink forced failure" }
