package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/protocol"
	"github.com/untangl/scoutlink/internal/transport"
)

// FakeHost is a scriptable host served over httptest. It records every UI
// event and command it receives, in arrival order.
type FakeHost struct {
	Server *transport.Server
	// URL is the websocket endpoint surfaces dial.
	URL string

	http *httptest.Server
	bus  *channel.Bus

	mu       sync.Mutex
	pantryID string
	getErr   error
	received []string
	setIDs   []string
}

// StartFakeHost boots a fake host and registers cleanup on t.
func StartFakeHost(t *testing.T) *FakeHost {
	t.Helper()
	bus := channel.New()
	server := transport.NewServer(bus)
	h := &FakeHost{Server: server, bus: bus}

	server.Handle(protocol.CommandGetPantryID, func(ctx context.Context, _ json.RawMessage) (any, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.received = append(h.received, protocol.CommandGetPantryID)
		if h.getErr != nil {
			return nil, h.getErr
		}
		return h.pantryID, nil
	})
	server.Handle(protocol.CommandSetPantryID, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args protocol.SetPantryIDArgs
		if err := protocol.DecodeValue(raw, &args); err != nil {
			return nil, err
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		h.received = append(h.received, protocol.CommandSetPantryID)
		h.setIDs = append(h.setIDs, args.PantryID)
		return nil, nil
	})
	for _, name := range []string{protocol.EventDOMLoaded, protocol.EventSelectFile, protocol.EventBase64True, protocol.EventBase64False} {
		server.Listen(name, h.record)
	}

	h.http = httptest.NewServer(server)
	h.URL = "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws"
	t.Cleanup(h.Close)
	return h
}

// Close disconnects every surface and stops the server.
func (h *FakeHost) Close() {
	h.Server.Close()
	h.http.Close()
	h.bus.Close()
}

// SetPantryID sets the value get_pantry_id answers with.
func (h *FakeHost) SetPantryID(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pantryID = id
	h.getErr = nil
}

// FailGetPantryID makes get_pantry_id answer with a host error.
func (h *FakeHost) FailGetPantryID(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.getErr = errors.New(message)
}

// Emit sends a host event carrying a text message to every surface.
func (h *FakeHost) Emit(name, message string) {
	h.Server.Emit(name, protocol.Text(message))
}

// Received returns the UI event and command names seen so far.
func (h *FakeHost) Received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.received...)
}

// SetPantryIDCalls returns every id sent with set_pantry_id.
func (h *FakeHost) SetPantryIDCalls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.setIDs...)
}

// WaitForSurfaces blocks until n surfaces are connected.
func (h *FakeHost) WaitForSurfaces(t *testing.T, n int) {
	t.Helper()
	WaitFor(t, func() bool { return h.Server.Surfaces() == n })
}

// WaitReceived blocks until name has been received count times.
func (h *FakeHost) WaitReceived(t *testing.T, name string, count int) {
	t.Helper()
	WaitFor(t, func() bool {
		seen := 0
		for _, got := range h.Received() {
			if got == name {
				seen++
			}
		}
		return seen >= count
	})
}

func (h *FakeHost) record(evt channel.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, evt.Name)
}

// WaitFor polls cond until it holds or two seconds pass.
func WaitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
