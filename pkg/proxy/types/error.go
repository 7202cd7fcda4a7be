package types

// ErrorResponse is the JSON body of every error the gateway produces.
//
//	{"error": "no route for GET /unknown"}
type ErrorResponse struct {
	// Error is a human-readable description of the failure.
	Error string `json:"error"`
}

// NewErrorResponse creates an ErrorResponse carrying message.
func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// Summary is the body of the gateway's root endpoint.
type Summary struct {
	// Status is always "ok" while the process is serving.
	Status string `json:"status"`

	// Upstream is the host:port the gateway forwards to.
	Upstream string `json:"upstream"`
}
