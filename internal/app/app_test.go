package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/protocol"
	"github.com/untangl/scoutlink/internal/transport"
)

// greetingHost sends one event the moment a surface connects, then waits for
// the surface to hang up.
func greetingHost(t *testing.T, name, message string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		data, err := protocol.Encode(protocol.EventFrame(name, protocol.Text(message)))
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectKeepsEventsSentOnConnect(t *testing.T) {
	url := greetingHost(t, protocol.EventSetLiveDataURL, "http://x/y")
	bus := channel.New()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	watcher, client, err := connect(ctx, url, bus)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer watcher.Stop()
	defer client.Close()

	select {
	case evt := <-watcher.Events():
		if evt.Name != protocol.EventSetLiveDataURL || protocol.MessageString(evt.Payload) != "http://x/y" {
			t.Fatalf("unexpected first event %#v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event sent on connect was dropped")
	}
}

func TestConnectUnreachableHost(t *testing.T) {
	bus := channel.New()
	defer bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _, err := connect(ctx, "ws://127.0.0.1:1/ws", bus)
	if !errors.Is(err, transport.ErrHostUnreachable) {
		t.Fatalf("expected ErrHostUnreachable, got %v", err)
	}
}
