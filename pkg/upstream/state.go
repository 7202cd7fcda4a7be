package upstream

import "time"

// Status is the upstream health classification.
type Status string

const (
	// StatusUnknown is the state before the first probe completes.
	StatusUnknown Status = "unknown"

	// StatusHealthy means the most recent probes succeeded.
	StatusHealthy Status = "healthy"

	// StatusUnhealthy means the failure threshold was reached.
	StatusUnhealthy Status = "unhealthy"
)

// State is an immutable snapshot of upstream health.
type State struct {
	Status              Status
	LastChecked         time.Time
	ConsecutiveFailures int
	LastError           string
}

// nextState applies one probe outcome to prev.
//
// The first probe decides between healthy and unhealthy directly. After
// that a healthy upstream needs threshold consecutive failures to turn
// unhealthy, and a single success restores it.
func nextState(prev State, ok bool, probeErr error, now time.Time, threshold int) State {
	next := State{LastChecked: now}

	if ok {
		next.Status = StatusHealthy
		return next
	}

	next.ConsecutiveFailures = prev.ConsecutiveFailures + 1
	if probeErr != nil {
		next.LastError = probeErr.Error()
	}

	switch {
	case prev.Status == StatusUnknown:
		next.Status = StatusUnhealthy
	case next.ConsecutiveFailures >= threshold:
		next.Status = StatusUnhealthy
	default:
		next.Status = prev.Status
	}
	return next
}
