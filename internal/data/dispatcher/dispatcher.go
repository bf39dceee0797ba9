package dispatcher

import (
	"github.com/untangl/scoutlink/internal/backend"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/protocol"
	"github.com/untangl/scoutlink/internal/state"
)

// Result names the stores an event changed.
type Result struct {
	ScoutUpdated  bool
	StatusUpdated bool
	LinksUpdated  bool
	Base64Updated bool
	LinkLost      bool
}

// Changed reports whether anything visible moved.
func (r Result) Changed() bool {
	return r.ScoutUpdated || r.StatusUpdated || r.LinksUpdated || r.Base64Updated || r.LinkLost
}

type Dispatcher struct {
	scout state.ScoutStore
	links state.LinkStore
}

func New(s state.ScoutStore, l state.LinkStore) *Dispatcher {
	return &Dispatcher{scout: s, links: l}
}

func (d *Dispatcher) Handle(evt backend.Event) Result {
	var res Result
	if evt.Err != nil {
		res.LinkLost = true
		return res
	}
	msg := protocol.MessageString(evt.Payload)
	events.Store.Event(evt.Name, msg)
	switch evt.Name {
	case protocol.EventHideShareLink:
		// The latch is one-way; the payload is irrelevant.
		d.links.HideShare()
		res.LinksUpdated = true
	case protocol.EventSetScoutFile:
		d.scout.SetFile(msg)
		d.links.Recompute()
		res.ScoutUpdated = true
		res.LinksUpdated = true
	case protocol.EventScoutStatus:
		d.scout.SetStatus(protocol.ParseUploadStatus(msg))
		res.StatusUpdated = true
	case protocol.EventSetLiveDataURL:
		d.links.SetLiveDataURL(msg)
		res.LinksUpdated = true
	case protocol.EventSetBase64:
		d.scout.SetBase64(protocol.MessageBool(evt.Payload))
		res.Base64Updated = true
	default:
		events.Store.Ignored(evt.Name)
	}
	return res
}
