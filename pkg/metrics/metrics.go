package metrics

import (
	"strconv"
	"time"
)

// RecordTopologyFetch records one snapshot fetch from source.
func (r *Registry) RecordTopologyFetch(source string, links int, err error, duration time.Duration) {
	r.TopologyFetchesTotal.WithLabelValues(source, status(err)).Inc()
	r.TopologyFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		r.LinksDiscovered.WithLabelValues(source).Set(float64(links))
	}
}

// RecordPath records one path computation. outcome is "ok" or the failing
// stage name.
func (r *Registry) RecordPath(outcome string, hops int) {
	r.PathComputationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		r.PathHops.Observe(float64(hops))
	}
}

// SetConsumed sets the number of links consumed in the active batch.
func (r *Registry) SetConsumed(n int) {
	r.LinksConsumed.Set(float64(n))
}

// RecordProvisionCall records one per-hop configuration call.
func (r *Registry) RecordProvisionCall(kind, action string, err error, duration time.Duration) {
	r.ProvisionCallsTotal.WithLabelValues(kind, action, status(err)).Inc()
	r.ProvisionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRetry records a retried configuration call.
func (r *Registry) RecordRetry(kind string) {
	r.ProvisionRetries.WithLabelValues(kind).Inc()
}

// RecordFlow records the result of a whole flow ("applied", "partial",
// "skipped", "failed").
func (r *Registry) RecordFlow(action, result string, channel int) {
	r.FlowsTotal.WithLabelValues(action, result).Inc()
	if result == "applied" || result == "partial" {
		r.ChannelsAssigned.WithLabelValues(strconv.Itoa(channel)).Inc()
	}
}

// RecordHTTPRequest records an outbound request. code is 0 when no response
// was received.
func (r *Registry) RecordHTTPRequest(target, endpoint string, code int, duration time.Duration) {
	s := "error"
	if code > 0 {
		s = strconv.Itoa(code)
	}
	r.HTTPRequestsTotal.WithLabelValues(target, endpoint, s).Inc()
	r.HTTPRequestDuration.WithLabelValues(target, endpoint).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
