package supervisor

import (
	"sync"
	"time"
)

// RestartBudget allows at most max restarts inside a sliding window.
type RestartBudget struct {
	max    int
	window time.Duration

	mu       sync.Mutex
	restarts []time.Time
}

// NewRestartBudget creates a budget of max restarts per window.
func NewRestartBudget(max int, window time.Duration) *RestartBudget {
	return &RestartBudget{max: max, window: window}
}

// Allow records a restart at now and reports whether it fits the budget.
// A refused restart is not recorded.
func (b *RestartBudget) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.window)
	kept := b.restarts[:0]
	for _, t := range b.restarts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.restarts = kept

	if len(b.restarts) >= b.max {
		return false
	}
	b.restarts = append(b.restarts, now)
	return true
}

// Used returns the number of restarts inside the window ending at now.
func (b *RestartBudget) Used(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.window)
	n := 0
	for _, t := range b.restarts {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
