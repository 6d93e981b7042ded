package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled bool
	// BufferSize caps events queued ahead of the delivery worker.
	BufferSize int
	// DropIfFull sheds events instead of blocking the lifecycle path when
	// the queue is full.
	DropIfFull bool
}

// Dispatcher decouples lifecycle code from sink latency: Emit stamps the
// event and queues it, and a single worker delivers in order. A nil
// Dispatcher (auditing disabled) accepts and discards everything, so
// callers never branch on it.
type Dispatcher struct {
	sink       Sink
	clock      func() time.Time
	queue      chan Event
	quit       chan struct{}
	worker     sync.WaitGroup
	dropped    atomic.Uint64
	closing    atomic.Bool
	shutdown   sync.Once
	dropIfFull bool
}

// NewDispatcher starts the delivery worker, or returns nil when cfg
// disables auditing.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		clock:      time.Now,
		queue:      make(chan Event, size),
		quit:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}
	d.worker.Add(1)
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer d.worker.Done()
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			d.flush()
			return
		}
	}
}

// flush delivers whatever was queued before Close won the race.
func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit stamps event with an ID and timestamp and hands it to the worker.
// In drop mode a full queue increments the drop counter; otherwise the
// caller waits for room, ctx, or shutdown, whichever comes first.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	event.Stamp(d.clock())

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.quit:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops intake and waits for queued events to reach the sink. Safe
// to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.shutdown.Do(func() {
		d.closing.Store(true)
		close(d.quit)
		d.worker.Wait()
	})
}

// Dropped reports how many events drop mode discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
