package supervisor

import (
	"errors"
	"fmt"
)

// ErrRestartBudgetExceeded is returned by Run when the listener crashed
// more often than the restart budget allows.
var ErrRestartBudgetExceeded = errors.New("restart budget exceeded")

// StartupError reports which startup step failed.
type StartupError struct {
	Step string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Step, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Startup steps, in the order Run performs them.
const (
	StepConfig    = "config"
	StepTracing   = "tracing"
	StepListener  = "listener"
	StepJournal   = "journal"
	StepHeartbeat = "heartbeat"
)
