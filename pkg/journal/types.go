package journal

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one completed gateway request.
type Entry struct {
	// ID uniquely identifies the entry. Generated when empty.
	ID uuid.UUID `json:"id"`

	// Time is when the request was received.
	Time time.Time `json:"time"`

	// RequestID is the X-Request-ID the gateway assigned.
	RequestID string `json:"request_id"`

	Method string `json:"method"`
	Path   string `json:"path"`

	// Route is the matched rule name, or empty when no rule matched.
	Route string `json:"route"`

	// Status is the status code sent to the client.
	Status int `json:"status"`

	// DurationMs covers routing, forwarding, and streaming the body.
	DurationMs int64 `json:"duration_ms"`

	// BytesOut is the number of body bytes written to the client.
	BytesOut int64 `json:"bytes_out"`

	// Error describes a gateway-side failure, if any.
	Error string `json:"error,omitempty"`
}

// Filter selects entries for Query and Count. Zero fields do not filter.
type Filter struct {
	Since     time.Time
	Until     time.Time
	Route     string
	MinStatus int

	// Limit caps the number of entries returned by Query. Default: 100.
	Limit int
}
