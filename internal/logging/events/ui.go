package events

import "github.com/untangl/scoutlink/internal/logging"

type UITracer struct{}

type StoreTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

var (
	UI      = UITracer{}
	Store   = StoreTracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
)

func (UITracer) Draft(draft string, applyVisible bool) {
	logging.Trace("ui.draft", map[string]interface{}{"draft": draft, "apply": applyVisible})
}

func (UITracer) Key(key string) {
	logging.Trace("ui.key", map[string]interface{}{"key": key})
}

func (UITracer) Copy(target string) {
	logging.Trace("ui.copy", map[string]interface{}{"target": target})
}

func (StoreTracer) Event(name, message string) {
	logging.Trace("store.event", map[string]interface{}{"name": name, "message": message})
}

func (StoreTracer) Ignored(name string) {
	logging.Trace("store.ignored", map[string]interface{}{"name": name})
}

func (StoreTracer) Commit(committed string) {
	logging.Trace("store.commit", map[string]interface{}{"committed": committed})
}

func (StoreTracer) PantryUnknown(err error) {
	payload := map[string]interface{}{}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("store.pantry-unknown", payload)
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Skip(id, label string) {
	logging.Trace("command.skip", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) NoOp(id, label string) {
	logging.Trace("command.noop", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label, msgType string) {
	logging.Trace("command.result", map[string]interface{}{"id": id, "label": label, "msg": msgType})
}
