package events

import (
	"time"

	"github.com/untangl/scoutlink/internal/logging"
)

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Connected(url string, elapsed time.Duration) {
	logging.Trace("app.connected", map[string]interface{}{"url": url, "elapsed": elapsed.String()})
}

func (AppTracer) DialFailed(url string, err error) {
	logging.Trace("app.dial_failed", map[string]interface{}{"url": url, "error": err.Error()})
}

func (AppTracer) Stop(reason string) {
	logging.Trace("app.stop", map[string]interface{}{"reason": reason})
}
