// Package backend turns host events arriving on the channel bus into a single
// stream the UI loop can drain one message at a time.
package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/protocol"
)

// ErrLinkDown is reported when the link went down without a recorded cause.
var ErrLinkDown = errors.New("host link down")

// Event conveys one host event or the loss of the host link.
type Event struct {
	Name    string
	Payload protocol.Payload
	Seq     uint64
	Err     error
}

// Link is the part of the host link the watcher consults for the cause of a
// link-down event.
type Link interface {
	Err() error
}

// Watcher subscribes to every host-originated event and republishes them on
// Events in arrival order. Link loss travels through the bus as well, so it
// is always the last event after everything the link delivered.
type Watcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	events chan Event

	mu   sync.Mutex
	link Link
}

// NewWatcher registers listeners on bus for the host events and the local
// link-down event. Register before dialling so nothing the host sends on
// connect is dropped.
func NewWatcher(bus channel.Listener) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, 64),
	}

	for _, name := range protocol.HostEvents() {
		bus.Listen(name, w.forward)
	}
	bus.Listen(protocol.EventLinkDown, w.linkDown)

	return w
}

// Attach records the link whose error explains a later link-down event.
func (w *Watcher) Attach(link Link) {
	w.mu.Lock()
	w.link = link
	w.mu.Unlock()
}

// Events returns a channel of host events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. Events arriving afterwards are discarded.
func (w *Watcher) Stop() {
	w.cancel()
}

// forward runs on the bus dispatch goroutine. Blocking here while the UI is
// busy keeps later events queued behind earlier ones.
func (w *Watcher) forward(evt channel.Event) {
	w.send(Event{Name: evt.Name, Payload: evt.Payload, Seq: evt.Seq})
}

func (w *Watcher) linkDown(evt channel.Event) {
	w.send(Event{Name: evt.Name, Seq: evt.Seq, Err: w.linkErr(evt.Payload)})
}

func (w *Watcher) linkErr(payload protocol.Payload) error {
	w.mu.Lock()
	link := w.link
	w.mu.Unlock()
	if link != nil {
		if err := link.Err(); err != nil {
			return err
		}
	}
	if msg := protocol.MessageString(payload); msg != "" {
		return errors.New(msg)
	}
	return ErrLinkDown
}

func (w *Watcher) send(evt Event) {
	select {
	case <-w.ctx.Done():
	case w.events <- evt:
	}
}
