// Package health polls readiness of the emulator and the controller so that
// seeding and provisioning wait for asynchronous link discovery instead of
// sleeping for a fixed time.
package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the outcome of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ErrNotReady is returned by WaitReady when the context ends before every
// readiness check reports healthy.
var ErrNotReady = errors.New("health: not ready")

// Check is the result of one named check.
type Check struct {
	Name        string
	Status      Status
	Message     string
	Details     map[string]any
	LastChecked time.Time
	Duration    time.Duration
}

// CheckFunc performs one check.
type CheckFunc func(ctx context.Context) Check

// Checker runs named readiness checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	order  []string
}

// Report is the combined result of a readiness pass.
type Report struct {
	Status    Status
	Timestamp time.Time
	Checks    map[string]Check
}

// Ready reports whether every check was healthy.
func (r Report) Ready() bool { return r.Status == StatusHealthy }

// failing returns the first check, in registration order, that is not
// healthy.
func (r Report) failing(order []string) (Check, bool) {
	for _, name := range order {
		if c, ok := r.Checks[name]; ok && c.Status != StatusHealthy {
			return c, true
		}
	}
	return Check{}, false
}
