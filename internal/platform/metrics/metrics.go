package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors for the dispatch core.
type Recorder struct {
	Transitions     *prometheus.CounterVec
	LocationSamples *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	SnapshotsSent   prometheus.Counter
}

// New registers the dispatch collectors on the given registerer.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_booking_transitions_total",
			Help: "Booking status transitions by event and resulting status.",
		}, []string{"event", "to_status"}),
		LocationSamples: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_location_samples_total",
			Help: "Ingested location samples by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_active_tracking_sessions",
			Help: "Number of live tracking sessions.",
		}),
		SnapshotsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_tracking_snapshots_total",
			Help: "Tracking snapshots published to subscribers.",
		}),
	}
}

// NewDefault registers the collectors on the default Prometheus registry.
func NewDefault() *Recorder {
	return New(prometheus.DefaultRegisterer)
}
