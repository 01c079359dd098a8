package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Probe checks one dependency and reports its status.
type Probe func(ctx context.Context) Status

// Recorder receives the outcome of every probe, typically a metrics sink.
type Recorder interface {
	RecordHealthStatus(component string, healthy bool)
}

// Checker runs registered probes on demand and aggregates the result.
type Checker struct {
	system   string
	timeout  time.Duration
	recorder Recorder

	mu     sync.RWMutex
	names  []string
	probes map[string]Probe
}

// NewChecker creates a checker for the named system. Each probe gets at most
// timeout to complete. recorder may be nil.
func NewChecker(system string, timeout time.Duration, recorder Recorder) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		system:   system,
		timeout:  timeout,
		recorder: recorder,
		probes:   make(map[string]Probe),
	}
}

// Register adds or replaces a named probe.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.probes[name]; !exists {
		c.names = append(c.names, name)
	}
	c.probes[name] = probe
}

// Check runs every probe concurrently and returns the aggregate status.
// Sub-statuses keep registration order.
func (c *Checker) Check(ctx context.Context) Status {
	c.mu.RLock()
	names := make([]string, len(c.names))
	copy(names, c.names)
	probes := make([]Probe, len(names))
	for i, name := range names {
		probes[i] = c.probes[name]
	}
	c.mu.RUnlock()

	results := make([]Status, len(names))
	var g errgroup.Group
	for i := range names {
		i := i
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			status := probes[i](probeCtx)
			status.Component = names[i]
			if status.Timestamp.IsZero() {
				status.Timestamp = time.Now()
			}
			results[i] = status
			return nil
		})
	}
	_ = g.Wait()

	if c.recorder != nil {
		for _, status := range results {
			c.recorder.RecordHealthStatus(status.Component, status.IsHealthy())
		}
	}

	return Aggregate(c.system, results)
}
