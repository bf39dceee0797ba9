// Package channel implements the named, asynchronous event bus used on both
// sides of the host link.
//
// Emit never blocks: events are appended to an unbounded queue and a single
// dispatch goroutine hands them to the listeners registered for their name
// at delivery time. Because there is exactly one dispatcher, events are
// delivered in emission order and no two handlers ever run concurrently.
// Events emitted while nobody listens for their name are dropped.
package channel

import (
	"fmt"
	"sync"

	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/metrics"
	"github.com/untangl/scoutlink/internal/protocol"
)

// Event is a single named message.
type Event struct {
	Name    string
	Payload protocol.Payload
	Seq     uint64
}

// Handler consumes one event. Handlers run on the bus dispatch goroutine and
// must not block for long.
type Handler func(Event)

// Emitter publishes named events.
type Emitter interface {
	Emit(name string, payload protocol.Payload)
}

// Listener registers handlers for named events.
type Listener interface {
	Listen(name string, handler Handler)
}

// Bus is an in-process Emitter and Listener.
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]Handler
	queue     []Event
	seq       uint64
	closed    bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

var (
	_ Emitter  = (*Bus)(nil)
	_ Listener = (*Bus)(nil)
)

// New starts a bus and its dispatch goroutine.
func New() *Bus {
	b := &Bus{
		listeners: make(map[string][]Handler),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Emit queues an event for delivery. Events emitted after Close are ignored.
func (b *Bus) Emit(name string, payload protocol.Payload) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq++
	seq := b.seq
	b.queue = append(b.queue, Event{Name: name, Payload: payload, Seq: seq})
	b.mu.Unlock()

	metrics.RecordEmit(name)
	events.Channel.Emit(name, seq)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Listen registers handler for events called name. Multiple handlers per
// name are invoked in registration order.
func (b *Bus) Listen(name string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], handler)
	b.mu.Unlock()
}

// Close stops accepting events, delivers what is already queued, and waits
// for the dispatch goroutine to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.stop)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		evt, handlers, ok, closed := b.next()
		if ok {
			b.deliver(evt, handlers)
			continue
		}
		if closed {
			return
		}
		select {
		case <-b.wake:
		case <-b.stop:
		}
	}
}

// next pops the oldest event together with a snapshot of its listeners.
func (b *Bus) next() (Event, []Handler, bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		b.queue = nil
		return Event{}, nil, false, b.closed
	}
	evt := b.queue[0]
	b.queue[0] = Event{}
	b.queue = b.queue[1:]
	registered := b.listeners[evt.Name]
	handlers := make([]Handler, len(registered))
	copy(handlers, registered)
	return evt, handlers, true, b.closed
}

func (b *Bus) deliver(evt Event, handlers []Handler) {
	if len(handlers) == 0 {
		metrics.RecordDropped(evt.Name)
		events.Channel.Drop(evt.Name, evt.Seq)
		return
	}
	metrics.RecordDelivered(evt.Name)
	events.Channel.Deliver(evt.Name, evt.Seq, len(handlers))
	for _, h := range handlers {
		invoke(h, evt)
	}
}

func invoke(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			events.Channel.Panic(evt.Name, r)
			logging.Error(fmt.Errorf("listener for %s panicked: %v", evt.Name, r))
		}
	}()
	h(evt)
}
