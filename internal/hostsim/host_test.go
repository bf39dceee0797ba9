package hostsim

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/protocol"
	"github.com/untangl/scoutlink/internal/transport"
)

type recorder struct {
	mu     sync.Mutex
	events []channel.Event
}

func (r *recorder) handle(evt channel.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) last(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return protocol.MessageString(r.events[i].Payload), true
		}
	}
	return "", false
}

type fixture struct {
	host   *Host
	client *transport.Client
	seen   *recorder
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	hostBus := channel.New()
	server := transport.NewServer(hostBus)
	host := New(server, opts)
	srv := httptest.NewServer(server)

	uiBus := channel.New()
	seen := &recorder{}
	for _, name := range protocol.HostEvents() {
		uiBus.Listen(name, seen.handle)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := transport.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", uiBus)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
		srv.Close()
		uiBus.Close()
		hostBus.Close()
	})
	waitFor(t, func() bool { return server.Surfaces() == 1 })
	return &fixture{host: host, client: client, seen: seen}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (f *fixture) waitEvent(t *testing.T, name, want string) {
	t.Helper()
	waitFor(t, func() bool {
		got, ok := f.seen.last(name)
		return ok && got == want
	})
}

func scoutFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("scout data"), 0o644); err != nil {
		t.Fatalf("write scout file: %v", err)
	}
	return path
}

func TestGetPantryIDReturnsStoredValue(t *testing.T) {
	f := newFixture(t, Options{PantryID: "abc"})
	var id string
	if err := f.client.Invoke(context.Background(), protocol.CommandGetPantryID, nil, &id); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if id != "abc" {
		t.Fatalf("expected abc, got %q", id)
	}
}

func TestDOMLoadedSendsBase64AndHideLatch(t *testing.T) {
	f := newFixture(t, Options{Base64: true, HideShareLink: true})
	f.client.Emit(protocol.EventDOMLoaded, protocol.Payload{})
	f.waitEvent(t, protocol.EventSetBase64, "true")
	f.waitEvent(t, protocol.EventHideShareLink, "true")
}

func TestSelectFilePublishesLiveURL(t *testing.T) {
	path := scoutFile(t, "My Match.dvw")
	f := newFixture(t, Options{File: path, PantryID: "p1"})
	f.client.Emit(protocol.EventSelectFile, protocol.Payload{})

	want := DefaultPantryBaseURL + "p1/basket/My%20Match.dvw"
	f.waitEvent(t, protocol.EventSetLiveDataURL, want)
	f.waitEvent(t, protocol.EventSetScoutFile, path)
	f.waitEvent(t, protocol.EventScoutStatus, "ok")
}

func TestSelectFileWithoutPantryNeedsID(t *testing.T) {
	path := scoutFile(t, "a.dvw")
	f := newFixture(t, Options{File: path})
	f.client.Emit(protocol.EventSelectFile, protocol.Payload{})
	f.waitEvent(t, protocol.EventScoutStatus, StatusPantryNeeded)
	if url, _ := f.seen.last(protocol.EventSetLiveDataURL); url != "" {
		t.Fatalf("expected empty live url without pantry id, got %q", url)
	}
}

func TestSelectFileWithoutConfiguredFile(t *testing.T) {
	f := newFixture(t, Options{PantryID: "p1"})
	f.client.Emit(protocol.EventSelectFile, protocol.Payload{})
	f.waitEvent(t, protocol.EventScoutStatus, StatusNoFile)
}

func TestSetPantryIDReemitsLiveURL(t *testing.T) {
	path := scoutFile(t, "a.dvw")
	f := newFixture(t, Options{File: path})
	f.client.Emit(protocol.EventSelectFile, protocol.Payload{})
	f.waitEvent(t, protocol.EventSetScoutFile, path)

	err := f.client.Invoke(context.Background(), protocol.CommandSetPantryID, protocol.SetPantryIDArgs{PantryID: "p2"}, nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	f.waitEvent(t, protocol.EventSetLiveDataURL, DefaultPantryBaseURL+"p2/basket/a.dvw")
	if f.host.PantryID() != "p2" {
		t.Fatalf("expected stored pantry id p2, got %q", f.host.PantryID())
	}
}

func TestBase64RequestsAreEchoed(t *testing.T) {
	f := newFixture(t, Options{Base64: true})
	f.client.Emit(protocol.EventBase64False, protocol.Payload{})
	f.waitEvent(t, protocol.EventSetBase64, "false")
	if f.host.Base64() {
		t.Fatalf("expected base64 off")
	}
	f.client.Emit(protocol.EventBase64True, protocol.Payload{})
	f.waitEvent(t, protocol.EventSetBase64, "true")
}

func TestCheckFile(t *testing.T) {
	if err := (Options{}).CheckFile(); err != ErrNoFile {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	if err := (Options{File: t.TempDir()}).CheckFile(); err == nil {
		t.Fatalf("expected directory to be rejected")
	}
	if err := (Options{File: scoutFile(t, "x.vsm")}).CheckFile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCommandsAreTracedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.log")
	logging.Configure(path)
	logging.SetTraceEnabled(true)
	t.Cleanup(func() {
		logging.SetTraceEnabled(false)
		logging.Configure("")
	})

	f := newFixture(t, Options{})
	ctx := context.Background()
	if err := f.client.Invoke(ctx, protocol.CommandSetPantryID, protocol.SetPantryIDArgs{PantryID: "p1"}, nil); err != nil {
		t.Fatalf("set_pantry_id: %v", err)
	}
	var id string
	if err := f.client.Invoke(ctx, protocol.CommandGetPantryID, nil, &id); err != nil {
		t.Fatalf("get_pantry_id: %v", err)
	}
	_ = logging.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.Count(string(data), `"event":"host.command"`); got != 2 {
		t.Fatalf("expected one trace per command, got %d:\n%s", got, data)
	}
}
