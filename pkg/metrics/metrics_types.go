// Package metrics holds the Prometheus instruments for topology discovery,
// path computation and provisioning.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lightpath"

// Registry holds every instrument on a private Prometheus registry.
type Registry struct {
	// Topology
	TopologyFetchesTotal  *prometheus.CounterVec
	TopologyFetchDuration *prometheus.HistogramVec
	LinksDiscovered       *prometheus.GaugeVec

	// Path computation
	PathComputationsTotal *prometheus.CounterVec
	PathHops              prometheus.Histogram
	LinksConsumed         prometheus.Gauge

	// Provisioning
	ProvisionCallsTotal *prometheus.CounterVec
	ProvisionDuration   *prometheus.HistogramVec
	ProvisionRetries    *prometheus.CounterVec
	FlowsTotal          *prometheus.CounterVec
	ChannelsAssigned    *prometheus.CounterVec

	// Outbound HTTP to the emulator and controller
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every instrument registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.initTopologyMetrics()
	r.initPathMetrics()
	r.initProvisionMetrics()
	r.initHTTPMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
