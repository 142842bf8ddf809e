package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initProvisionMetrics() {
	r.ProvisionCallsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_calls_total",
			Help:      "Per-hop configuration calls, by node kind, action and status",
		},
		[]string{"kind", "action", "status"},
	)

	r.ProvisionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provision_call_duration_seconds",
			Help:      "Per-hop configuration call latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	r.ProvisionRetries = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_retries_total",
			Help:      "Configuration calls retried after a failure",
		},
		[]string{"kind"},
	)

	r.FlowsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_total",
			Help:      "Light-path flows, by action and result",
		},
		[]string{"action", "result"},
	)

	r.ChannelsAssigned = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_assigned_total",
			Help:      "Channels assigned to flows",
		},
		[]string{"channel"},
	)
}
