package health

import (
	"strings"
	"time"
)

// Values of Status.Status.
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

func newStatus(component, state, message string) Status {
	return Status{
		Component: component,
		Healthy:   state == StateHealthy,
		Status:    state,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewHealthy reports a component that answered.
func NewHealthy(component, message string) Status {
	return newStatus(component, StateHealthy, message)
}

// NewDegraded reports a component that still serves requests with a feature
// missing, such as tasks being saved while their events are not published.
func NewDegraded(component, message string) Status {
	return newStatus(component, StateDegraded, message)
}

// NewUnhealthy reports a component that cannot serve requests.
func NewUnhealthy(component, message string) Status {
	return newStatus(component, StateUnhealthy, message)
}

func severity(state string) int {
	switch state {
	case StateUnhealthy:
		return 2
	case StateDegraded:
		return 1
	default:
		return 0
	}
}

// Aggregate reports the worst of subStatuses under component. The message
// names every sub-component that is not healthy.
func Aggregate(component string, subStatuses []Status) Status {
	worst := StateHealthy
	var failing []string
	for _, sub := range subStatuses {
		if severity(sub.Status) > severity(worst) {
			worst = sub.Status
		}
		if !sub.IsHealthy() {
			failing = append(failing, sub.Component)
		}
	}

	message := "all checks passed"
	if len(failing) > 0 {
		message = "checks failing: " + strings.Join(failing, ", ")
	}

	status := newStatus(component, worst, message)
	if len(subStatuses) > 0 {
		status.SubStatuses = append([]Status(nil), subStatuses...)
	}
	return status
}
