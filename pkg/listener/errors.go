package listener

import (
	"errors"
	"fmt"
)

// ErrNoPortAvailable is returned when every port in the requested range
// failed to bind.
var ErrNoPortAvailable = errors.New("no port available")

// NoPortAvailableError reports the range that was scanned and the bind
// error for each attempted port.
type NoPortAvailableError struct {
	Start    int
	End      int
	Attempts []error
}

// Error implements the error interface.
func (e *NoPortAvailableError) Error() string {
	msg := fmt.Sprintf("no port available in range %d-%d (%d attempted)", e.Start, e.End, len(e.Attempts))
	if n := len(e.Attempts); n > 0 {
		msg += fmt.Sprintf(": last error: %v", e.Attempts[n-1])
	}
	return msg
}

// Is reports whether target is ErrNoPortAvailable.
func (e *NoPortAvailableError) Is(target error) bool {
	return target == ErrNoPortAvailable
}
