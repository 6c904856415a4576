// Package metrics exposes Prometheus counters for the control server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	KeyEvents     *prometheus.CounterVec
	MotorCommands *prometheus.CounterVec
	Subscribers   prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecremote",
			Name:      "requests_total",
			Help:      "HTTP requests by endpoint.",
		}, []string{"endpoint"}),
		KeyEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecremote",
			Name:      "key_events_total",
			Help:      "Forwarded key events by type.",
		}, []string{"type"}),
		MotorCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecremote",
			Name:      "motor_commands_total",
			Help:      "Motor commands by motor and result.",
		}, []string{"motor", "result"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vecremote",
			Name:      "event_subscribers",
			Help:      "Connected event feed subscribers.",
		}),
	}
	m.registry.MustRegister(m.Requests, m.KeyEvents, m.MotorCommands, m.Subscribers)
	return m
}

// ObserveMotor records a motor command outcome.
func (m *Metrics) ObserveMotor(motor string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MotorCommands.WithLabelValues(motor, result).Inc()
}

// SetSubscribers updates the subscriber gauge.
func (m *Metrics) SetSubscribers(n int) {
	m.Subscribers.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
