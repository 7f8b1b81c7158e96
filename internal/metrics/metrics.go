// Package metrics defines the Prometheus collectors exported by ledgw.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledgw"

// Outcomes recorded by the gateway.
const (
	OutcomeRelayed = "relayed"
	OutcomeFailed  = "failed"
)

type Gateway struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

func NewGateway(reg prometheus.Registerer) *Gateway {
	g := &Gateway{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Forwarded requests by method and outcome.",
		}, []string{"method", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "upstream_duration_seconds",
			Help:      "Time until upstream response headers arrived.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "in_flight",
			Help:      "Requests currently being forwarded.",
		}),
	}
	reg.MustRegister(g.Requests, g.Duration, g.InFlight)
	return g
}

func (g *Gateway) Observe(method, outcome string, elapsed time.Duration) {
	g.Requests.WithLabelValues(method, outcome).Inc()
	g.Duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

type Device struct {
	Commands *prometheus.CounterVec
	LEDsOn   prometheus.Gauge
}

func NewDevice(reg prometheus.Registerer) *Device {
	d := &Device{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "commands_total",
			Help:      "LED commands by target state and result.",
		}, []string{"state", "result"}),
		LEDsOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "leds_on",
			Help:      "LEDs currently switched on.",
		}),
	}
	reg.MustRegister(d.Commands, d.LEDsOn)
	return d
}
