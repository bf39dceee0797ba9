// Package facade exposes the host commands and UI-originated events as plain
// method calls so the UI never deals with names or payload shapes.
package facade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/metrics"
	"github.com/untangl/scoutlink/internal/protocol"
)

// ErrPantryUnknown reports that the host could not tell us the pantry id.
// Callers must not read it as an empty id.
var ErrPantryUnknown = errors.New("pantry id unknown")

// Invoker performs request/response commands against the host.
type Invoker interface {
	Invoke(ctx context.Context, name string, args any, dest any) error
}

// Link is the host link as seen by the facade.
type Link interface {
	Invoker
	channel.Emitter
}

const (
	defaultCommandTimeout = 5 * time.Second
	selectFileInterval    = 750 * time.Millisecond
)

// Facade issues commands and UI events to the host.
type Facade struct {
	link       Link
	timeout    time.Duration
	selectGate *throttle

	domOnce sync.Once
	wg      sync.WaitGroup
}

// New builds a facade over link. A zero timeout uses the default.
func New(link Link, timeout time.Duration) *Facade {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Facade{
		link:       link,
		timeout:    timeout,
		selectGate: newThrottle(selectFileInterval),
	}
}

// GetPantryID asks the host for the committed pantry id. Every failure wraps
// ErrPantryUnknown.
func (f *Facade) GetPantryID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	var id string
	err := f.link.Invoke(ctx, protocol.CommandGetPantryID, nil, &id)
	metrics.RecordCommand(protocol.CommandGetPantryID, err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPantryUnknown, err)
	}
	return id, nil
}

// SetPantryID sends the id to the host without waiting for the outcome.
// Failures are logged only; the host reflects acceptance through later
// events.
func (f *Facade) SetPantryID(id string) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		err := f.link.Invoke(ctx, protocol.CommandSetPantryID, protocol.SetPantryIDArgs{PantryID: id}, nil)
		metrics.RecordCommand(protocol.CommandSetPantryID, err)
		if err != nil {
			logging.Error(fmt.Errorf("set pantry id: %w", err))
		}
	}()
}

// SelectFile asks the host to start its file-scout flow. Requests closer
// together than selectFileInterval are dropped; the return value reports
// whether this one was sent.
func (f *Facade) SelectFile() bool {
	if !f.selectGate.allow() {
		return false
	}
	f.link.Emit(protocol.EventSelectFile, protocol.Payload{})
	return true
}

// DOMLoaded signals readiness. Only the first call emits.
func (f *Facade) DOMLoaded() {
	f.domOnce.Do(func() {
		f.link.Emit(protocol.EventDOMLoaded, protocol.Payload{})
	})
}

// RequestBase64 asks the host to switch Base64 encoding on or off. The local
// flag changes only when the host answers with set_b64.
func (f *Facade) RequestBase64(enabled bool) {
	name := protocol.EventBase64False
	if enabled {
		name = protocol.EventBase64True
	}
	f.link.Emit(name, protocol.Payload{})
}

// Wait blocks until background SetPantryID calls have finished.
func (f *Facade) Wait() {
	f.wg.Wait()
}
