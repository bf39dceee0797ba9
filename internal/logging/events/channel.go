package events

import "github.com/untangl/scoutlink/internal/logging"

type ChannelTracer struct{}

type LinkTracer struct{}

var (
	Channel = ChannelTracer{}
	Link    = LinkTracer{}
)

func (ChannelTracer) Emit(name string, seq uint64) {
	logging.Trace("channel.emit", map[string]interface{}{"name": name, "seq": seq})
}

func (ChannelTracer) Deliver(name string, seq uint64, listeners int) {
	logging.Trace("channel.deliver", map[string]interface{}{"name": name, "seq": seq, "listeners": listeners})
}

func (ChannelTracer) Drop(name string, seq uint64) {
	logging.Trace("channel.drop", map[string]interface{}{"name": name, "seq": seq})
}

func (ChannelTracer) Panic(name string, recovered interface{}) {
	logging.Trace("channel.panic", map[string]interface{}{"name": name, "recovered": recovered})
}

func (LinkTracer) Send(kind, name, id string) {
	logging.Trace("link.send", map[string]interface{}{"kind": kind, "name": name, "id": id})
}

func (LinkTracer) Receive(kind, name, id string) {
	logging.Trace("link.receive", map[string]interface{}{"kind": kind, "name": name, "id": id})
}

func (LinkTracer) Closed(err error) {
	payload := map[string]interface{}{}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("link.closed", payload)
}
