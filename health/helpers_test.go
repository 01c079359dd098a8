package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStatusConstructors(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		want    string
		healthy bool
	}{
		{"healthy", NewHealthy("store", "ok"), "healthy", true},
		{"unhealthy", NewUnhealthy("store", "down"), "unhealthy", false},
		{"degraded", NewDegraded("events", "slow"), "degraded", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Status)
			assert.Equal(t, tt.healthy, tt.status.Healthy)
			assert.False(t, tt.status.Timestamp.IsZero())
		})
	}
}

func TestAggregate(t *testing.T) {
	t.Run("empty is healthy", func(t *testing.T) {
		status := Aggregate("taskql", nil)
		assert.True(t, status.IsHealthy())
		assert.Empty(t, status.SubStatuses)
	})

	t.Run("all healthy", func(t *testing.T) {
		status := Aggregate("taskql", []Status{
			NewHealthy("store", "ok"),
			NewHealthy("nats", "ok"),
		})
		assert.True(t, status.IsHealthy())
		assert.Len(t, status.SubStatuses, 2)
	})

	t.Run("degraded wins over healthy", func(t *testing.T) {
		status := Aggregate("taskql", []Status{
			NewHealthy("store", "ok"),
			NewDegraded("nats", "reconnecting"),
		})
		assert.True(t, status.IsDegraded())
	})

	t.Run("unhealthy wins over degraded", func(t *testing.T) {
		status := Aggregate("taskql", []Status{
			NewUnhealthy("store", "down"),
			NewDegraded("nats", "reconnecting"),
		})
		assert.True(t, status.IsUnhealthy())
	})

	t.Run("message names failing components", func(t *testing.T) {
		status := Aggregate("taskql", []Status{
			NewHealthy("store", "ok"),
			NewDegraded("nats", "reconnecting"),
		})
		assert.Equal(t, "checks failing: nats", status.Message)

		status = Aggregate("taskql", []Status{NewHealthy("store", "ok")})
		assert.Equal(t, "all checks passed", status.Message)
	})

	t.Run("unknown state does not lower severity", func(t *testing.T) {
		status := Aggregate("taskql", []Status{
			NewDegraded("nats", "reconnecting"),
			{Component: "odd", Status: "starting"},
		})
		assert.True(t, status.IsDegraded())
		assert.Equal(t, "checks failing: nats, odd", status.Message)
	})

	t.Run("sub statuses are copied", func(t *testing.T) {
		subs := []Status{NewHealthy("store", "ok")}
		status := Aggregate("taskql", subs)
		subs[0].Message = "changed"
		assert.Equal(t, "ok", status.SubStatuses[0].Message)
	})
}
