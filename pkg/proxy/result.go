package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

// copyBufferSize is the read size used when streaming upstream bodies.
const copyBufferSize = 32 * 1024

// Result is the outcome of a single forwarded request.
type Result struct {
	// StatusCode is the upstream status, or 502/504 when Err is set.
	StatusCode int

	// Header holds upstream response headers minus hop-by-hop headers.
	Header http.Header

	// Body streams the upstream response. Nil when Err is set.
	Body io.ReadCloser

	// Err is set when the upstream could not be reached or timed out.
	Err error

	// Rule is the rule the request was forwarded under.
	Rule routing.Rule

	cancel   context.CancelFunc
	span     trace.Span
	start    time.Time
	classify func(error) error
	onError  func(error)
	closed   bool
}

func (res *Result) fail(err error) *Result {
	res.StatusCode = StatusFor(err)
	res.Err = err
	tracing.SetError(res.span, err)
	tracing.SetStatusCode(res.span, res.StatusCode)
	return res
}

// Duration returns the time since the request was forwarded.
func (res *Result) Duration() time.Duration {
	return time.Since(res.start)
}

// WriteResponse writes the result to w. Error results are written as a
// JSON error body. Successful results copy the upstream status, headers,
// and body, flushing after every read so streamed tokens reach the client
// as they arrive. Access-Control-* headers already present on w are kept,
// and upstream Vary fields are merged with the gateway's.
//
// It returns the number of body bytes written and, for successful results,
// any error that interrupted the stream.
func (res *Result) WriteResponse(w http.ResponseWriter) (int64, error) {
	if res.Err != nil {
		n, _ := writeError(w, res.StatusCode, res.Err.Error())
		return n, nil
	}

	dst := w.Header()
	for name, values := range res.Header {
		switch {
		case name == "Vary":
			mergeVary(dst, values)
		case strings.HasPrefix(name, "Access-Control-") && dst.Get(name) != "":
		default:
			dst[name] = append([]string(nil), values...)
		}
	}
	w.WriteHeader(res.StatusCode)

	if res.Body == nil {
		return 0, nil
	}

	rc := http.NewResponseController(w)
	buf := make([]byte, copyBufferSize)
	var written int64

	for {
		n, rerr := res.Body.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return written, ferr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			err := rerr
			if res.classify != nil {
				err = res.classify(rerr)
			}
			if res.onError != nil {
				res.onError(err)
			}
			tracing.SetError(res.span, err)
			return written, err
		}
	}
}

// Close releases the upstream body, the request deadline, and the trace
// span. It is safe to call more than once.
func (res *Result) Close() error {
	if res.closed {
		return nil
	}
	res.closed = true

	var err error
	if res.Body != nil {
		err = res.Body.Close()
	}
	if res.cancel != nil {
		res.cancel()
	}
	if res.span != nil {
		res.span.End()
	}
	return err
}

// mergeVary adds the upstream Vary fields to dst, skipping fields dst
// already lists.
func mergeVary(dst http.Header, values []string) {
	seen := make(map[string]bool)
	for _, v := range dst.Values("Vary") {
		for _, field := range strings.Split(v, ",") {
			seen[strings.ToLower(strings.TrimSpace(field))] = true
		}
	}
	for _, v := range values {
		for _, field := range strings.Split(v, ",") {
			field = strings.TrimSpace(field)
			key := strings.ToLower(field)
			if field == "" || seen[key] {
				continue
			}
			seen[key] = true
			dst.Add("Vary", field)
		}
	}
}
