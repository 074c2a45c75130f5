package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the hub's Prometheus collectors.
type Metrics struct {
	Connections prometheus.Gauge
	Events      *prometheus.CounterVec
	Dropped     prometheus.Counter
}

// New registers the collectors on reg (the default registerer when nil).
// roomCount, when set, is exported as a gauge of live rooms.
func New(reg prometheus.Registerer, roomCount func() float64) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	if roomCount != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "skillsync_rooms",
			Help: "Number of live rooms.",
		}, roomCount)
	}

	return &Metrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skillsync_connections",
			Help: "Number of open hub connections.",
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillsync_events_total",
			Help: "Inbound events processed, by type.",
		}, []string{"type"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillsync_dropped_deliveries_total",
			Help: "Outbound events dropped because a member was slow or gone.",
		}),
	}
}

// Handler exposes the default registry, for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
