package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics publishes cache effectiveness to a Prometheus registry.
// Wire it into a Cache via Config.Metrics.
type Metrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
	Size      prometheus.Gauge
}

// NewMetrics builds the cache collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xsdgraph",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Lookups served from the parse cache.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xsdgraph",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Lookups that required a fresh fetch and parse.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xsdgraph",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries removed due to TTL, staleness, or invalidation.",
		}),
		Size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xsdgraph",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Live entries in the parse cache.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Hits, m.Misses, m.Evictions, m.Size} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
