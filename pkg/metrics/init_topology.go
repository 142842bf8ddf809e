package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTopologyMetrics() {
	r.TopologyFetchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topology_fetches_total",
			Help:      "Topology snapshots fetched, by source and status",
		},
		[]string{"source", "status"},
	)

	r.TopologyFetchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "topology_fetch_duration_seconds",
			Help:      "Time to fetch and flatten a topology snapshot",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	r.LinksDiscovered = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links_discovered",
			Help:      "Links in the last snapshot, by source",
		},
		[]string{"source"},
	)
}

func (r *Registry) initPathMetrics() {
	r.PathComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_computations_total",
			Help:      "Light-path computations, by outcome",
		},
		[]string{"outcome"},
	)

	r.PathHops = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_hops",
			Help:      "Links per computed light-path",
			Buckets:   prometheus.LinearBuckets(1, 1, 12),
		},
	)

	r.LinksConsumed = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "links_consumed",
			Help:      "Terminal-adjacent links consumed in the current batch",
		},
	)
}
