package sink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/corelogio/corelog/record"
)

func TestText_FormatIncludesLevelAndMessage(t *testing.T) {
	f := NewText()
	rec := record.Record{
		Time:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:      record.Warn,
		LoggerName: "app",
		Message:    "disk almost full",
		ThreadID:   7,
	}
	var out bytes.Buffer
	f.Format(&rec, &out)

	got := out.String()
	for _, want := range []string{"[WARN]", "disk almost full", "[app]", "[gid 7]"} {
		if !strings.Contains(got, want) {
			t.Fatalf("formatted output %q missing %q", got, want)
		}
	}
}

func TestText_Clone_IsIndependent(t *testing.T) {
	f := NewText()
	f.Prefix = "orig"
	clone := f.Clone().(*Text)
	clone.Prefix = "changed"

	if f.Prefix != "orig" {
		t.Fatalf("expected original formatter untouched, got %q", f.Prefix)
	}
}

func TestConsole_LogWritesFormattedLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)
	c.SetLevel(record.Info)

	if err := c.Log(record.Record{Level: record.Info, Message: "hello"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected written output to contain message, got %q", buf.String())
	}
}

func TestConsole_ShouldLogRespectsLevel(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, nil)
	c.SetLevel(record.Warn)

	if c.ShouldLog(record.Debug) {
		t.Fatal("expected Debug to be rejected at Warn threshold")
	}
	if !c.ShouldLog(record.Error) {
		t.Fatal("expected Error to be admitted at Warn threshold")
	}
}

func TestConsole_SetPatternSetsPrefix(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)
	c.SetPattern(">> ")

	if err := c.Log(record.Record{Message: "x"}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if !strings.HasPrefix(buf.String(), ">> ") {
		t.Fatalf("expected pattern prefix, got %q", buf.String())
	}
}

func TestCounting_RecordsAndFlushes(t *testing.T) {
	c := NewCounting()
	for i := 0; i < 3; i++ {
		if err := c.Log(record.Record{Message: "x"}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(c.Records()) != 3 {
		t.Fatalf("expected 3 records, got %d", len(c.Records()))
	}
	if c.FlushCount() != 1 {
		t.Fatalf("expected 1 flush, got %d", c.FlushCount())
	}
}

func TestCounting_FailLog(t *testing.T) {
	c := NewCounting()
	c.FailLog = true
	if err := c.Log(record.Record{}); err == nil {
		t.Fatal("expected error when FailLog is set")
	}
	if len(c.Records()) != 0 {
		t.Fatal("expected no records recorded on failure")
	}
}
