package corelogslog

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/corelogio/corelog/asynclogger"
	"github.com/corelogio/corelog/pool"
	"github.com/corelogio/corelog/record"
	"github.com/corelogio/corelog/sink"
)

func newTestLogger(t *testing.T) (*asynclogger.Logger, *sink.Counting) {
	t.Helper()
	p, err := pool.New(pool.Config{Family: pool.LockFreeFamily, Workers: 1, QueueCapacity: 64})
	if err != nil {
		t.Fatalf("pool.New: %v", err)
	}
	t.Cleanup(p.Close)
	counting := sink.NewCounting()
	l := asynclogger.New("svc", []sink.Sink{counting}, p)
	return l, counting
}

func TestHandler_HandleDispatchesThroughLogger(t *testing.T) {
	l, counting := newTestLogger(t)
	h := New(l)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "request handled", 0)
	rec.AddAttrs(slog.Int("status", 200))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := counting.Records()
	if len(got) != 1 {
		t.Fatalf("expected 1 delivered record, got %d", len(got))
	}
	want := "request handled status=200"
	if got[0].Message != want {
		t.Fatalf("Message = %q, want %q", got[0].Message, want)
	}
	if got[0].Level != record.Info {
		t.Fatalf("Level = %v, want Info", got[0].Level)
	}
}

func TestHandler_Enabled(t *testing.T) {
	l, _ := newTestLogger(t)
	l.SetLogLevel(record.Warn)
	h := New(l)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected Info disabled under a Warn threshold")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected Error enabled under a Warn threshold")
	}
}

func TestHandler_WithAttrsAppendsToEveryRecord(t *testing.T) {
	l, counting := newTestLogger(t)
	h := New(l).WithAttrs([]slog.Attr{slog.String("service", "checkout")})

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "started", 0)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := counting.Records()
	want := "started service=checkout"
	if got[0].Message != want {
		t.Fatalf("Message = %q, want %q", got[0].Message, want)
	}
}

func TestHandler_WithGroupPrefixesAttrKeys(t *testing.T) {
	l, counting := newTestLogger(t)
	h := New(l).WithGroup("http")

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "req", 0)
	rec.AddAttrs(slog.Int("status", 404))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := counting.Records()
	want := "req http.status=404"
	if got[0].Message != want {
		t.Fatalf("Message = %q, want %q", got[0].Message, want)
	}
}

func TestHandler_WithGroupEmptyNameReturnsSameHandler(t *testing.T) {
	l, _ := newTestLogger(t)
	h := New(l)
	if h.WithGroup("") != h {
		t.Fatal("expected WithGroup(\"\") to return the same handler")
	}
}
