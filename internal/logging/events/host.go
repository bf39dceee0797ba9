package events

import "github.com/untangl/scoutlink/internal/logging"

type HostTracer struct{}

var Host = HostTracer{}

func (HostTracer) SurfaceConnected(remote string, total int) {
	logging.Trace("host.surface.connect", map[string]interface{}{"remote": remote, "total": total})
}

func (HostTracer) SurfaceDisconnected(remote string, total int) {
	logging.Trace("host.surface.disconnect", map[string]interface{}{"remote": remote, "total": total})
}

func (HostTracer) Command(name string, err error) {
	payload := map[string]interface{}{"command": name}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("host.command", payload)
}

func (HostTracer) PantryID(id string) {
	logging.Trace("host.pantry", map[string]interface{}{"pantry": id})
}
