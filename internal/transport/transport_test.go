package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/protocol"
)

type linkFixture struct {
	server   *Server
	http     *httptest.Server
	client   *Client
	hostBus  *channel.Bus
	surfaces *channel.Bus
}

func newLinkFixture(t *testing.T, setup func(*Server)) *linkFixture {
	t.Helper()
	hostBus := channel.New()
	server := NewServer(hostBus)
	if setup != nil {
		setup(server)
	}
	srv := httptest.NewServer(server)

	surfaceBus := channel.New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", surfaceBus)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	f := &linkFixture{server: server, http: srv, client: client, hostBus: hostBus, surfaces: surfaceBus}
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
		srv.Close()
		surfaceBus.Close()
		hostBus.Close()
	})
	waitUntil(t, func() bool { return server.Surfaces() == 1 })
	return f
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInvokeRoundTrip(t *testing.T) {
	var gotArgs protocol.SetPantryIDArgs
	f := newLinkFixture(t, func(s *Server) {
		s.Handle(protocol.CommandGetPantryID, func(context.Context, json.RawMessage) (any, error) {
			return "abc", nil
		})
		s.Handle(protocol.CommandSetPantryID, func(_ context.Context, args json.RawMessage) (any, error) {
			return nil, protocol.DecodeValue(args, &gotArgs)
		})
	})

	var id string
	if err := f.client.Invoke(context.Background(), protocol.CommandGetPantryID, nil, &id); err != nil {
		t.Fatalf("invoke get: %v", err)
	}
	if id != "abc" {
		t.Fatalf("expected abc, got %q", id)
	}

	if err := f.client.Invoke(context.Background(), protocol.CommandSetPantryID, protocol.SetPantryIDArgs{PantryID: "xyz"}, nil); err != nil {
		t.Fatalf("invoke set: %v", err)
	}
	if gotArgs.PantryID != "xyz" {
		t.Fatalf("expected host to receive xyz, got %q", gotArgs.PantryID)
	}
}

func TestInvokeSurfacesHostErrors(t *testing.T) {
	f := newLinkFixture(t, func(s *Server) {
		s.Handle(protocol.CommandGetPantryID, func(context.Context, json.RawMessage) (any, error) {
			return nil, errors.New("store locked")
		})
	})

	err := f.client.Invoke(context.Background(), protocol.CommandGetPantryID, nil, nil)
	var hostErr *HostError
	if !errors.As(err, &hostErr) {
		t.Fatalf("expected HostError, got %v", err)
	}
	if hostErr.Message != "store locked" || hostErr.Command != protocol.CommandGetPantryID {
		t.Fatalf("unexpected host error %#v", hostErr)
	}

	err = f.client.Invoke(context.Background(), "does_not_exist", nil, nil)
	if !errors.As(err, &hostErr) || !strings.Contains(hostErr.Message, "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestEventsFlowBothWays(t *testing.T) {
	f := newLinkFixture(t, nil)

	fromSurface := make(chan string, 1)
	f.server.Listen(protocol.EventSelectFile, func(evt channel.Event) { fromSurface <- evt.Name })
	fromHost := make(chan string, 1)
	f.surfaces.Listen(protocol.EventSetLiveDataURL, func(evt channel.Event) {
		fromHost <- protocol.MessageString(evt.Payload)
	})

	f.client.Emit(protocol.EventSelectFile, protocol.Payload{})
	select {
	case name := <-fromSurface:
		if name != protocol.EventSelectFile {
			t.Fatalf("unexpected event %s", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("host never saw select_file")
	}

	f.server.Emit(protocol.EventSetLiveDataURL, protocol.Text("http://x/y?a=1&b=2"))
	select {
	case msg := <-fromHost:
		if msg != "http://x/y?a=1&b=2" {
			t.Fatalf("payload altered in transit: %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("surface never saw set_live_data_url")
	}
}

func TestLinkLossFailsPendingInvokes(t *testing.T) {
	release := make(chan struct{})
	f := newLinkFixture(t, func(s *Server) {
		s.Handle(protocol.CommandGetPantryID, func(ctx context.Context, _ json.RawMessage) (any, error) {
			<-release
			return "late", nil
		})
	})
	defer close(release)

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.client.Invoke(context.Background(), protocol.CommandGetPantryID, nil, nil)
	}()
	time.Sleep(50 * time.Millisecond)
	f.server.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrHostUnreachable) {
			t.Fatalf("expected ErrHostUnreachable, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("pending invoke never failed")
	}

	select {
	case <-f.client.Done():
	default:
		t.Fatalf("expected Done to be closed")
	}
	if err := f.client.Invoke(context.Background(), protocol.CommandGetPantryID, nil, nil); !errors.Is(err, ErrHostUnreachable) {
		t.Fatalf("expected later invokes to fail fast, got %v", err)
	}
}

func TestLinkDownFollowsEveryHostEvent(t *testing.T) {
	f := newLinkFixture(t, nil)

	var (
		mu   sync.Mutex
		seen []string
	)
	down := make(chan struct{})
	record := func(evt channel.Event) {
		mu.Lock()
		seen = append(seen, evt.Name)
		mu.Unlock()
		if evt.Name == protocol.EventLinkDown {
			close(down)
		}
	}
	f.surfaces.Listen(protocol.EventSetScoutFile, record)
	f.surfaces.Listen(protocol.EventLinkDown, record)

	const n = 50
	for i := 0; i < n; i++ {
		f.server.Emit(protocol.EventSetScoutFile, protocol.Text(fmt.Sprintf("/tmp/%d.dvw", i)))
	}
	f.server.Close()

	select {
	case <-down:
	case <-time.After(2 * time.Second):
		t.Fatalf("link_down never reached the surface bus")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != n+1 {
		t.Fatalf("expected %d events then link_down, got %d", n, len(seen))
	}
	if seen[n] != protocol.EventLinkDown {
		t.Fatalf("link_down should be last, got order %v", seen)
	}
}

func TestInvokeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	f := newLinkFixture(t, func(s *Server) {
		s.Handle(protocol.CommandGetPantryID, func(context.Context, json.RawMessage) (any, error) {
			<-release
			return "", nil
		})
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := f.client.Invoke(ctx, protocol.CommandGetPantryID, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDialUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/ws", nil)
	if !errors.Is(err, ErrHostUnreachable) {
		t.Fatalf("expected ErrHostUnreachable, got %v", err)
	}
}

func TestHealthzRoute(t *testing.T) {
	bus := channel.New()
	defer bus.Close()
	srv := httptest.NewServer(NewServer(bus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "OK" {
		t.Fatalf("unexpected healthz response %d %q", resp.StatusCode, body)
	}
}
