package health

import (
	"context"
	"fmt"
	"time"
)

// NewChecker creates a checker with no checks; it is ready by default.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds or replaces a readiness check.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.checks[name]; !ok {
		c.order = append(c.order, name)
	}
	c.checks[name] = check
}

// Readiness runs every check once. The worst status wins.
func (c *Checker) Readiness(ctx context.Context) Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(c.checks)),
	}

	for _, name := range c.order {
		start := time.Now()
		check := c.checks[name](ctx)
		check.Name = name
		check.LastChecked = start
		check.Duration = time.Since(start)
		report.Checks[name] = check

		switch {
		case check.Status == StatusUnhealthy:
			report.Status = StatusUnhealthy
		case check.Status == StatusDegraded && report.Status != StatusUnhealthy:
			report.Status = StatusDegraded
		}
	}

	return report
}

// WaitReady polls Readiness every interval until all checks are healthy or
// ctx ends. The returned error wraps ErrNotReady and names the last failing
// check.
func (c *Checker) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report := c.Readiness(ctx)
		if report.Ready() {
			return nil
		}

		select {
		case <-ctx.Done():
			c.mu.RLock()
			failing, _ := report.failing(c.order)
			c.mu.RUnlock()
			return fmt.Errorf("%w: %s %s: %s (%v)", ErrNotReady, failing.Name, failing.Status, failing.Message, ctx.Err())
		case <-ticker.C:
		}
	}
}
