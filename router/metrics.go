package router

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the hub's Prometheus collectors.
type Metrics struct {
	// Relayed counts frames delivered to at least one peer, by route kind.
	Relayed *prometheus.CounterVec
	// Dropped counts frames discarded before delivery, by reason.
	Dropped *prometheus.CounterVec
	// Peers tracks the number of connected peers, by flavor.
	Peers *prometheus.GaugeVec
}

// NewMetrics creates the hub collectors and registers them with reg when it
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darkwire",
			Subsystem: "router",
			Name:      "frames_relayed_total",
			Help:      "Frames delivered to at least one peer, by route kind.",
		}, []string{"route"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darkwire",
			Subsystem: "router",
			Name:      "frames_dropped_total",
			Help:      "Frames discarded before delivery, by reason.",
		}, []string{"reason"}),
		Peers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "darkwire",
			Subsystem: "router",
			Name:      "connected_peers",
			Help:      "Currently connected peers, by flavor.",
		}, []string{"flavor"}),
	}
	if reg != nil {
		reg.MustRegister(m.Relayed, m.Dropped, m.Peers)
	}
	return m
}
