package health

import (
	"context"
	"fmt"
)

// EndpointCheck is healthy when ping succeeds.
func EndpointCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy, Message: "reachable"}
	}
}

// LinksDiscoveredCheck is healthy once count reports at least want links.
// Fewer links than expected is degraded; a failed count is unhealthy.
func LinksDiscoveredCheck(count func(ctx context.Context) (int, error), want int) CheckFunc {
	return func(ctx context.Context) Check {
		n, err := count(ctx)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}

		check := Check{Details: map[string]any{"links": n, "want": want}}
		if n < want {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d of %d links discovered", n, want)
			return check
		}
		check.Status = StatusHealthy
		check.Message = fmt.Sprintf("%d links discovered", n)
		return check
	}
}
