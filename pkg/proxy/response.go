package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"mercator-hq/callisto/pkg/proxy/types"
)

// WriteJSONResponse writes data as a JSON response with statusCode.
// HEAD requests receive the headers only.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes {"error": message} with statusCode.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	_, err := writeError(w, statusCode, message)
	return err
}

// WriteError writes err with the status StatusFor assigns to it.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteErrorResponse(w, StatusFor(err), err.Error())
}

func writeError(w http.ResponseWriter, statusCode int, message string) (int64, error) {
	body, err := json.Marshal(types.NewErrorResponse(message))
	if err != nil {
		return 0, fmt.Errorf("failed to encode error response: %w", err)
	}
	body = append(body, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Content-Length")
	w.WriteHeader(statusCode)
	n, err := w.Write(body)
	return int64(n), err
}
