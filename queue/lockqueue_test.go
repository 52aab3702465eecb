package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/corelogio/corelog/record"
)

func TestLock_FIFOOrder(t *testing.T) {
	q := NewLock(4, Block)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		env := record.NewLogEnvelope(nil, record.Record{Message: string(rune('a' + i))})
		if err := q.Enqueue(ctx, env); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		env, ok := q.Dequeue(ctx)
		if !ok {
			t.Fatalf("Dequeue %d: expected ok", i)
		}
		if want := string(rune('a' + i)); env.Rec.Message != want {
			t.Fatalf("Dequeue %d: got %q want %q", i, env.Rec.Message, want)
		}
	}
}

func TestLock_DiscardNewDropsOnFull(t *testing.T) {
	q := NewLock(2, DiscardNew)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = q.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{}))
	}
	if q.Len() != 2 {
		t.Fatalf("expected ring to stay at capacity 2, got %d", q.Len())
	}
	if q.DiscardCount() != 3 {
		t.Fatalf("expected 3 discards, got %d", q.DiscardCount())
	}
}

func TestLock_OverwriteOldestResolvesDisplacedFlush(t *testing.T) {
	q := NewLock(1, OverwriteOldest)
	ctx := context.Background()
	flush := record.NewFlushEnvelope(nil)
	if err := q.Enqueue(ctx, flush); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{Message: "displacer"})); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case err := <-flush.Done:
		if err == nil {
			t.Fatal("expected displaced flush envelope to resolve with an error")
		}
	default:
		t.Fatal("expected displaced flush envelope to be resolved immediately")
	}
}

func TestLock_BlockWaitsForRoom(t *testing.T) {
	q := NewLock(1, Block)
	ctx := context.Background()
	if err := q.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{Message: "first"})); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := q.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{Message: "second"})); err != nil {
			t.Errorf("blocked Enqueue: %v", err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	env, ok := q.Dequeue(ctx)
	if !ok || env.Rec.Message != "first" {
		t.Fatalf("unexpected first dequeue: %+v ok=%v", env, ok)
	}
	wg.Wait()

	env, ok = q.Dequeue(ctx)
	if !ok || env.Rec.Message != "second" {
		t.Fatalf("unexpected second dequeue: %+v ok=%v", env, ok)
	}
}

func TestLock_EnqueueRespectsContextCancellation(t *testing.T) {
	q := NewLock(1, Block)
	ctx := context.Background()
	_ = q.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{}))

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Enqueue(cctx, record.NewLogEnvelope(nil, record.Record{})); err == nil {
		t.Fatal("expected cancellation error on a full, blocked Enqueue")
	}
}

func TestLock_CloseUnblocksWaitingDequeue(t *testing.T) {
	q := NewLock(2, Block)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Dequeue(ctx); ok {
			t.Error("expected Dequeue to report closed, not a value, on a closed empty queue")
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock a waiting Dequeue")
	}

	if err := q.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{})); err == nil {
		t.Fatal("expected Enqueue on a closed queue to fail")
	}
}

func TestLock_CloseResolvesPendingEnvelopes(t *testing.T) {
	q := NewLock(2, Block)
	ctx := context.Background()
	flush := record.NewFlushEnvelope(nil)
	if err := q.Enqueue(ctx, flush); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	q.Close()

	select {
	case err := <-flush.Done:
		if err == nil {
			t.Fatal("expected pending flush to resolve with an error on Close")
		}
	default:
		t.Fatal("expected Close to resolve pending envelope synchronously")
	}
}
