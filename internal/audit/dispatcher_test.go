package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(_ context.Context, e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &recordingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{Kind: "x"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher must report zero")
	}
}

func TestDispatcherCloseDrainsInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{Kind: "e", Metadata: map[string]string{"i": string(rune('a' + i%26))}})
	}
	d.Close()
	d.Close()

	events := sink.snapshot()
	if len(events) != 50 {
		t.Fatalf("expected 50 delivered, got %d", len(events))
	}
	for i, e := range events {
		if e.Metadata["i"] != string(rune('a'+i%26)) {
			t.Fatalf("event %d out of order", i)
		}
	}
	if d.Delivered() != 50 {
		t.Fatalf("expected Delivered=50, got %d", d.Delivered())
	}

	d.Emit(context.Background(), Event{Kind: "late"})
	if len(sink.snapshot()) != 50 {
		t.Fatal("emit after close must be ignored")
	}
}

func TestDispatcherCloseDuringEmitLeavesNothingQueued(t *testing.T) {
	for _, dropIfFull := range []bool{true, false} {
		for round := 0; round < 20; round++ {
			sink := &recordingSink{}
			d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: dropIfFull}, sink)

			var wg sync.WaitGroup
			start := make(chan struct{})
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					for i := 0; i < 50; i++ {
						d.Emit(context.Background(), Event{Kind: "e"})
					}
				}()
			}
			close(start)
			d.Close()
			wg.Wait()

			if n := len(d.queue); n != 0 {
				t.Fatalf("dropIfFull=%v round %d: %d events left in queue after Close", dropIfFull, round, n)
			}
			if got, want := uint64(len(sink.snapshot())), d.Delivered(); got != want {
				t.Fatalf("dropIfFull=%v round %d: sink saw %d events, Delivered=%d", dropIfFull, round, got, want)
			}
		}
	}
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	gate := make(chan struct{})
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sinkFunc(func(Event) { <-gate }))
	defer func() {
		close(gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{}) // picked up by the worker
	d.Emit(context.Background(), Event{}) // fills the buffer
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{})

	if d.Dropped() == 0 {
		t.Fatal("expected a cancelled emit to count as dropped")
	}
}

type sinkFunc func(Event)

func (f sinkFunc) Emit(_ context.Context, e Event) { f(e) }

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{Kind: "login_success", UserID: "u1", Success: true})
	sink.Emit(context.Background(), Event{Kind: "logout", UserID: "u1", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Kind != "login_success" || ev.UserID != "u1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sink := SlogSink{Logger: logger}

	sink.Emit(context.Background(), Event{Kind: "token_fingerprint_mismatch", UserID: "u1", TokenID: "t1", Error: "30004"})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["level"] != "WARN" || rec["event"] != "token_fingerprint_mismatch" || rec["token_id"] != "t1" {
		t.Fatalf("unexpected record %v", rec)
	}

	SlogSink{}.Emit(context.Background(), Event{})
}
