// Package protocol defines the message contract shared by the UI surface and
// the host process: event and command names, the event payload, the wire
// frame, and the normalization rules applied to loosely typed payloads.
package protocol

// Events emitted by the host and consumed by the UI surface.
const (
	EventHideShareLink  = "hide_su_link"
	EventSetScoutFile   = "set_scout_file"
	EventScoutStatus    = "scout_file_status"
	EventSetLiveDataURL = "set_live_data_url"
	EventSetBase64      = "set_b64"
)

// Events emitted by the UI surface and consumed by the host.
const (
	EventSelectFile  = "select_file"
	EventDOMLoaded   = "dom_loaded"
	EventBase64True  = "b64_true"
	EventBase64False = "b64_false"
)

// EventLinkDown is emitted into the local bus by the UI side of the link
// after its last inbound frame. It never crosses the wire.
const EventLinkDown = "link_down"

// Request/response commands served by the host.
const (
	CommandGetPantryID = "get_pantry_id"
	CommandSetPantryID = "set_pantry_id"
)

// HostEvents lists every event name the UI surface listens for.
func HostEvents() []string {
	return []string{
		EventHideShareLink,
		EventSetScoutFile,
		EventScoutStatus,
		EventSetLiveDataURL,
		EventSetBase64,
	}
}
