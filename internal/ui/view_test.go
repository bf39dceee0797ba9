package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/untangl/scoutlink/internal/backend"
	"github.com/untangl/scoutlink/internal/protocol"
)

func backendEvent(name string, payload protocol.Payload) backend.Event {
	return backend.Event{Name: name, Payload: payload}
}

func TestViewHidesLinksWithoutLiveData(t *testing.T) {
	h := NewHarness(newTestModel(nil))
	view := h.View()
	if strings.Contains(view, "Live data") || strings.Contains(view, "Share link") {
		t.Fatalf("links should be hidden, got:\n%s", view)
	}
	if !strings.Contains(view, "(none)") {
		t.Fatalf("expected empty scouted file marker, got:\n%s", view)
	}
}

func TestViewShowsLinksAndHidesShareOnLatch(t *testing.T) {
	h := NewHarness(newTestModel(nil))
	h.Send(hostEvent(protocol.EventSetLiveDataURL, "http://x/y"))
	view := h.View()
	if !strings.Contains(view, "Live data") || !strings.Contains(view, "https://apps.untan.gl/live/?url=http://x/y") {
		t.Fatalf("expected both links, got:\n%s", view)
	}

	h.Send(hostEvent(protocol.EventHideShareLink, ""))
	view = h.View()
	if !strings.Contains(view, "http://x/y") {
		t.Fatalf("local link should remain, got:\n%s", view)
	}
	if strings.Contains(view, "Share link") {
		t.Fatalf("share link should be hidden, got:\n%s", view)
	}
}

func TestViewStatusRendering(t *testing.T) {
	cases := map[string]string{
		"ok":        "✓ ok",
		"uploading": "uploading",
		"disk full": "✗ disk full",
	}
	for message, want := range cases {
		h := NewHarness(newTestModel(nil))
		h.Send(hostEvent(protocol.EventScoutStatus, message))
		if view := h.View(); !strings.Contains(view, want) {
			t.Fatalf("status %q: expected %q in view:\n%s", message, want, view)
		}
	}
}

func TestViewApplyHintFollowsDraft(t *testing.T) {
	host := &fakeHost{id: "abc"}
	h := NewHarness(newTestModel(host))
	h.Init()
	if strings.Contains(h.View(), applyHint) {
		t.Fatalf("apply hint should be hidden")
	}
	h.Type("d")
	if !strings.Contains(h.View(), applyHint) {
		t.Fatalf("apply hint should be shown:\n%s", h.View())
	}
}

func TestViewRespectsWidth(t *testing.T) {
	m := NewModel(nil, nil, Options{StaticCursor: true, Width: 30})
	h := NewHarness(m)
	h.Send(hostEvent(protocol.EventSetLiveDataURL, "https://getpantry.cloud/apiv1/pantry/abc/basket/long-file-name.dvw"))
	for _, line := range strings.Split(h.View(), "\n") {
		if w := ansi.StringWidth(line); w > 30 {
			t.Fatalf("line exceeds width (%d): %q", w, line)
		}
	}
}

func TestFooterShowsHealth(t *testing.T) {
	m := NewModel(nil, nil, Options{StaticCursor: true, ShowFooter: true})
	h := NewHarness(m)
	if !strings.Contains(h.View(), "no host events yet") {
		t.Fatalf("expected idle footer:\n%s", h.View())
	}
	h.Send(hostEvent(protocol.EventSetScoutFile, "a.dvw"))
	if !strings.Contains(h.View(), "last event") {
		t.Fatalf("expected event age in footer:\n%s", h.View())
	}
}

func TestInfoExpiresAfterLifetime(t *testing.T) {
	now := time.Unix(1000, 0)
	m := NewModel(nil, nil, Options{StaticCursor: true, Now: func() time.Time { return now }})
	m.setInfo("Pantry id applied")
	if !strings.Contains(m.View(), "Pantry id applied") {
		t.Fatalf("expected info line, got:\n%s", m.View())
	}
	now = now.Add(infoLifetime + time.Second)
	if strings.Contains(m.View(), "Pantry id applied") {
		t.Fatalf("info should expire, got:\n%s", m.View())
	}
	if m.infoMsg != "" {
		t.Fatalf("expired info should be cleared, got %q", m.infoMsg)
	}
}
