// Package hostsim is an in-memory scout host for development and tests. It
// answers the UI's commands and events the way the desktop host does, without
// watching or uploading the scouted file.
package hostsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/protocol"
	"github.com/untangl/scoutlink/internal/transport"
)

// DefaultPantryBaseURL is the pantry API root used to build live data URLs.
const DefaultPantryBaseURL = "https://getpantry.cloud/apiv1/pantry/"

// Status messages sent on scout_file_status besides ok/uploading.
const (
	StatusNoFile       = "na"
	StatusPantryNeeded = "Pantry ID needed"
	StatusMissingFile  = "file does not exist"
)

// Options configures the simulated host.
type Options struct {
	// File is the path handed out when the UI asks to select a file.
	File          string
	HideShareLink bool
	PantryID      string
	Base64        bool
	PantryBaseURL string
}

// Host holds the host-side state and reacts to UI traffic on a transport
// server.
type Host struct {
	server  *transport.Server
	baseURL string
	opts    Options

	mu       sync.Mutex
	pantryID string
	base64   bool
	file     string
}

// New registers the host's commands and listeners on server.
func New(server *transport.Server, opts Options) *Host {
	base := opts.PantryBaseURL
	if base == "" {
		base = DefaultPantryBaseURL
	}
	h := &Host{
		server:   server,
		baseURL:  base,
		opts:     opts,
		pantryID: opts.PantryID,
		base64:   opts.Base64,
	}
	server.Handle(protocol.CommandGetPantryID, h.getPantryID)
	server.Handle(protocol.CommandSetPantryID, h.setPantryID)
	server.Listen(protocol.EventDOMLoaded, h.onDOMLoaded)
	server.Listen(protocol.EventSelectFile, h.onSelectFile)
	server.Listen(protocol.EventBase64True, func(channel.Event) { h.setBase64(true) })
	server.Listen(protocol.EventBase64False, func(channel.Event) { h.setBase64(false) })
	return h
}

// PantryID returns the stored pantry id.
func (h *Host) PantryID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pantryID
}

// Base64 reports whether uploads would be Base64 encoded.
func (h *Host) Base64() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.base64
}

// LiveDataURL returns the URL the file is published at, or "" while the
// pantry id or the file is missing.
func (h *Host) LiveDataURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.liveDataURL()
}

func (h *Host) liveDataURL() string {
	basket := basketName(h.file)
	if h.pantryID == "" || basket == "" {
		return ""
	}
	return fmt.Sprintf("%s%s/basket/%s", h.baseURL, h.pantryID, basket)
}

// basketName is the percent-encoded file name, empty when the file is missing.
func basketName(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return strings.ReplaceAll(url.QueryEscape(filepath.Base(path)), "+", "%20")
}

func (h *Host) status() string {
	switch {
	case h.file == "":
		return StatusNoFile
	case h.pantryID == "":
		return StatusPantryNeeded
	}
	if _, err := os.Stat(h.file); err != nil {
		return StatusMissingFile
	}
	return "ok"
}

func (h *Host) getPantryID(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.PantryID(), nil
}

func (h *Host) setPantryID(ctx context.Context, raw json.RawMessage) (any, error) {
	var args protocol.SetPantryIDArgs
	if err := protocol.DecodeValue(raw, &args); err != nil {
		return nil, fmt.Errorf("decode %s args: %w", protocol.CommandSetPantryID, err)
	}
	h.mu.Lock()
	h.pantryID = args.PantryID
	live := h.liveDataURL()
	status := h.status()
	h.mu.Unlock()

	events.Host.PantryID(args.PantryID)
	h.server.Emit(protocol.EventSetLiveDataURL, protocol.Text(live))
	h.server.Emit(protocol.EventScoutStatus, protocol.Text(status))
	return nil, nil
}

func (h *Host) onDOMLoaded(channel.Event) {
	h.server.Emit(protocol.EventSetBase64, protocol.Text(strconv.FormatBool(h.Base64())))
	if h.opts.HideShareLink {
		h.server.Emit(protocol.EventHideShareLink, protocol.Text("true"))
	}
}

func (h *Host) onSelectFile(channel.Event) {
	if h.opts.File == "" {
		h.server.Emit(protocol.EventScoutStatus, protocol.Text(StatusNoFile))
		return
	}
	path, err := filepath.Abs(h.opts.File)
	if err != nil {
		path = h.opts.File
	}
	h.mu.Lock()
	h.file = path
	live := h.liveDataURL()
	status := h.status()
	h.mu.Unlock()

	h.server.Emit(protocol.EventSetLiveDataURL, protocol.Text(live))
	h.server.Emit(protocol.EventSetScoutFile, protocol.Text(path))
	h.server.Emit(protocol.EventScoutStatus, protocol.Text(status))
}

func (h *Host) setBase64(enabled bool) {
	h.mu.Lock()
	h.base64 = enabled
	h.mu.Unlock()
	h.server.Emit(protocol.EventSetBase64, protocol.Text(strconv.FormatBool(enabled)))
}

// ErrNoFile reports that the host has no file to hand out.
var ErrNoFile = errors.New("no scout file configured")

// CheckFile validates Options.File ahead of serving.
func (o Options) CheckFile() error {
	if o.File == "" {
		return ErrNoFile
	}
	info, err := os.Stat(o.File)
	if err != nil {
		return fmt.Errorf("scout file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("scout file %s is a directory", o.File)
	}
	return nil
}
