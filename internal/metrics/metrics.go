// Package metrics provides Prometheus metrics for scoutlink message traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	channelEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutlink_channel_events_emitted_total",
			Help: "Events accepted by a message channel",
		},
		[]string{"event"},
	)

	channelDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutlink_channel_events_delivered_total",
			Help: "Events handed to at least one listener",
		},
		[]string{"event"},
	)

	channelDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutlink_channel_events_dropped_total",
			Help: "Events dropped because no listener was registered",
		},
		[]string{"event"},
	)

	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutlink_commands_total",
			Help: "Request/response commands by outcome",
		},
		[]string{"command", "status"},
	)

	surfacesConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoutlink_surfaces_connected",
			Help: "UI surfaces currently connected to the host",
		},
	)
)

// RecordEmit counts an event accepted by a channel.
func RecordEmit(event string) {
	channelEmitted.WithLabelValues(event).Inc()
}

// RecordDelivered counts an event delivered to listeners.
func RecordDelivered(event string) {
	channelDelivered.WithLabelValues(event).Inc()
}

// RecordDropped counts an event with no listeners.
func RecordDropped(event string) {
	channelDropped.WithLabelValues(event).Inc()
}

// RecordCommand counts a command outcome ("ok" or "error").
func RecordCommand(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	commandsTotal.WithLabelValues(command, status).Inc()
}

// SetSurfacesConnected reports the number of connected UI surfaces.
func SetSurfacesConnected(n int) {
	surfacesConnected.Set(float64(n))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Dropped returns the collector for dropped events; exposed for tests.
func Dropped(event string) prometheus.Counter {
	return channelDropped.WithLabelValues(event)
}

// Delivered returns the collector for delivered events; exposed for tests.
func Delivered(event string) prometheus.Counter {
	return channelDelivered.WithLabelValues(event)
}
