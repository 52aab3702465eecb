package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corelogio/corelog/record"
)

func TestSharded_ProducerStaysOnOneLane(t *testing.T) {
	s := NewSharded(4, 8)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if err := s.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{ColorStart: i})); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	lane := -1
	for l := 0; l < s.NumLanes(); l++ {
		for {
			_, err := s.lanes[l].Dequeue()
			if err != nil {
				break
			}
			if lane == -1 {
				lane = l
			} else if lane != l {
				t.Fatalf("expected every enqueue from the same goroutine on one lane, found items on lane %d and %d", lane, l)
			}
		}
	}
	if lane == -1 {
		t.Fatal("expected to find enqueued items on exactly one lane")
	}
}

func TestSharded_PerLaneFIFO(t *testing.T) {
	s := NewSharded(1, 16)
	ctx := context.Background()
	const n = 10
	for i := 0; i < n; i++ {
		if err := s.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{ColorStart: i})); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		env, ok := s.DequeueLane(ctx, 0)
		if !ok {
			t.Fatalf("DequeueLane %d: expected ok", i)
		}
		if env.Rec.ColorStart != i {
			t.Fatalf("out of order: got %d want %d", env.Rec.ColorStart, i)
		}
	}
}

func TestSharded_MultiProducerMultiConsumer(t *testing.T) {
	const lanes = 4
	const perProducer = 50
	s := NewSharded(lanes, 32)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < lanes*2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := s.Enqueue(ctx, record.NewLogEnvelope(nil, record.Record{Message: "x"})); err != nil {
					t.Errorf("Enqueue: %v", err)
				}
			}
		}()
	}

	var received int64
	var rwg sync.WaitGroup
	done := make(chan struct{})
	for l := 0; l < lanes; l++ {
		rwg.Add(1)
		go func(lane int) {
			defer rwg.Done()
			for {
				cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
				_, ok := s.DequeueLane(cctx, lane)
				cancel()
				if !ok {
					select {
					case <-done:
						return
					default:
						continue
					}
				}
				atomic.AddInt64(&received, 1)
			}
		}(l)
	}

	wg.Wait()
	deadline := time.After(2 * time.Second)
	for {
		if atomic.LoadInt64(&received) == int64(lanes*2*perProducer) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for all envelopes to be consumed, got %d", atomic.LoadInt64(&received))
		case <-time.After(10 * time.Millisecond):
		}
	}
	close(done)
	rwg.Wait()
}

func TestSharded_CloseUnblocksDequeueLane(t *testing.T) {
	s := NewSharded(2, 4)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := s.DequeueLane(ctx, 0); ok {
			t.Error("expected DequeueLane to report closed on an empty, closed lane")
		}
	}()

	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock a waiting DequeueLane")
	}
}
