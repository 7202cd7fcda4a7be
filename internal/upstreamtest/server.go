// Package upstreamtest provides a fake model server for gateway tests.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Response defines how the server answers one path.
type Response struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string

	// StreamChunks are written one at a time with a flush after each, as
	// newline-delimited JSON the way Ollama streams generations.
	StreamChunks []string
	ChunkDelay   time.Duration

	// Hold blocks the handler until it is closed. Entered, when set,
	// receives a value once the request has arrived.
	Hold    <-chan struct{}
	Entered chan<- struct{}
}

// Server is a fake upstream. Unconfigured paths return 404; the default
// probe path /api/tags answers 200 with an empty model list.
type Server struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []*http.Request

	conns atomic.Int64
}

// NewServer starts a fake upstream.
func NewServer() *Server {
	s := &Server{
		responses: map[string]Response{
			"/api/tags": {StatusCode: http.StatusOK, Body: map[string]any{"models": []any{}}},
		},
	}
	s.server = httptest.NewUnstartedServer(http.HandlerFunc(s.handler))
	s.server.Config.ConnState = func(c net.Conn, state http.ConnState) {
		if state == http.StateNew {
			s.conns.Add(1)
		}
	}
	s.server.Start()
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Address returns the server's host:port.
func (s *Server) Address() string {
	return strings.TrimPrefix(s.server.URL, "http://")
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// SetResponse sets the response for path.
func (s *Server) SetResponse(path string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.responses[path] = response
}

// Requests returns the requests received so far, probes included.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*http.Request(nil), s.requests...)
}

// RequestCount returns the number of requests to path.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}

// Connections returns the number of TCP connections accepted.
func (s *Server) Connections() int64 {
	return s.conns.Load()
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	response, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Entered != nil {
		response.Entered <- struct{}{}
	}
	if response.Hold != nil {
		<-response.Hold
	}
	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		s.stream(w, response)
		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	switch v := response.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(v))
	case []byte:
		w.WriteHeader(status)
		_, _ = w.Write(v)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) stream(w http.ResponseWriter, response Response) {
	w.Header().Set("Content-Type", "application/x-ndjson")

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	rc := http.NewResponseController(w)
	for i, chunk := range response.StreamChunks {
		if i > 0 && response.ChunkDelay > 0 {
			time.Sleep(response.ChunkDelay)
		}
		fmt.Fprintf(w, "%s\n", chunk)
		_ = rc.Flush()
	}
}

// GenerateChunk returns one line of an Ollama /api/generate stream.
func GenerateChunk(model, text string, done bool) string {
	b, _ := json.Marshal(map[string]any{
		"model":    model,
		"response": text,
		"done":     done,
	})
	return string(b)
}

// ErrorResponse returns a response carrying an OpenAI style error body.
func ErrorResponse(statusCode int, message string) Response {
	return Response{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"code":    statusCode,
			},
		},
	}
}
