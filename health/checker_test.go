package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedHealth struct {
	mu      sync.Mutex
	results map[string]bool
}

func (r *recordedHealth) RecordHealthStatus(component string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[component] = healthy
}

func TestChecker_NoProbes(t *testing.T) {
	checker := NewChecker("taskql", time.Second, nil)
	assert.True(t, checker.Check(context.Background()).IsHealthy())
}

func TestChecker_AggregatesInRegistrationOrder(t *testing.T) {
	recorder := &recordedHealth{results: map[string]bool{}}
	checker := NewChecker("taskql", time.Second, recorder)

	checker.Register("store", func(_ context.Context) Status {
		return FromError("", nil, "store reachable")
	})
	checker.Register("nats", func(_ context.Context) Status {
		return FromError("", errors.New("nats: no servers available"), "")
	})

	status := checker.Check(context.Background())
	require.Len(t, status.SubStatuses, 2)
	assert.True(t, status.IsUnhealthy())
	assert.Equal(t, "store", status.SubStatuses[0].Component)
	assert.Equal(t, "nats", status.SubStatuses[1].Component)

	assert.Equal(t, map[string]bool{"store": true, "nats": false}, recorder.results)
}

func TestChecker_RegisterReplaces(t *testing.T) {
	checker := NewChecker("taskql", time.Second, nil)
	checker.Register("store", func(_ context.Context) Status { return NewUnhealthy("", "down") })
	checker.Register("store", func(_ context.Context) Status { return NewHealthy("", "up") })

	status := checker.Check(context.Background())
	require.Len(t, status.SubStatuses, 1)
	assert.Equal(t, "up", status.SubStatuses[0].Message)
}

func TestChecker_ProbeTimeout(t *testing.T) {
	checker := NewChecker("taskql", 20*time.Millisecond, nil)
	checker.Register("slow", func(ctx context.Context) Status {
		<-ctx.Done()
		return FromError("", ctx.Err(), "")
	})

	start := time.Now()
	status := checker.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, status.IsUnhealthy())
}
