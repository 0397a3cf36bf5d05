package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the request path.
	DropIfFull bool
}

// Dispatcher forwards audit events to a sink from one background
// goroutine, so the sink sees events in emit order.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	queue chan Event
	// stop releases blocked emitters; quit tells the worker to drain once
	// no send can still be in flight.
	stop     chan struct{}
	quit     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
	// sending is read-held by Emit across the stopped check and the send.
	sending sync.RWMutex

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts a dispatcher, or returns nil when cfg is disabled.
// A nil *Dispatcher is safe to use and drops everything.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
		quit:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.finished)
	for {
		select {
		case ev := <-d.queue:
			d.forward(ev)
		case <-d.quit:
			d.drain()
			return
		}
	}
}

// drain forwards whatever was queued before Close.
func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.forward(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) forward(ev Event) {
	d.sink.Emit(context.Background(), ev)
	d.delivered.Add(1)
}

// Emit queues event. With DropIfFull a full buffer drops and counts the
// event; otherwise Emit blocks until there is room, ctx ends, or the
// dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	d.sending.RLock()
	defer d.sending.RUnlock()
	if d.stopped.Load() {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	var cancelled <-chan struct{}
	if ctx != nil {
		cancelled = ctx.Done()
	}
	select {
	case d.queue <- event:
	case <-d.stop:
	case <-cancelled:
		d.dropped.Add(1)
	}
}

// Close stops accepting events, delivers the buffered ones and waits for
// the worker to exit. It is idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
		d.sending.Lock()
		close(d.quit)
		d.sending.Unlock()
	})
	<-d.finished
}

// Dropped returns the number of events lost to backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered returns the number of events handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
