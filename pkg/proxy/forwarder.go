package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/tracing"
	"mercator-hq/callisto/pkg/upstream"
)

// ForwarderConfig controls upstream timeouts and the connection pool.
type ForwarderConfig struct {
	// DefaultTimeout applies to rules without their own timeout.
	DefaultTimeout time.Duration

	// LongRunningTimeout applies to long-running rules without their own timeout.
	LongRunningTimeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// ErrorRecorder counts upstream failures. *metrics.Collector implements it.
type ErrorRecorder interface {
	RecordUpstreamError(kind string)
}

// Forwarder relays requests to the upstream target. It is safe for
// concurrent use; each call to Forward is independent.
type Forwarder struct {
	target  upstream.Target
	cfg     ForwarderConfig
	client  *http.Client
	logger  *slog.Logger
	metrics ErrorRecorder
	tracer  *tracing.Tracer
}

// NewForwarder creates a forwarder for target. metrics and tracer may be nil.
func NewForwarder(target upstream.Target, cfg ForwarderConfig, logger *slog.Logger, metrics ErrorRecorder, tracer *tracing.Tracer) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableCompression:    true,
		ExpectContinueTimeout: time.Second,
	}

	return &Forwarder{
		target: target,
		cfg:    cfg,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "proxy.forwarder"),
		metrics: metrics,
		tracer:  tracer,
	}
}

// TimeoutFor returns the deadline that applies to rule.
func (f *Forwarder) TimeoutFor(rule routing.Rule) time.Duration {
	switch {
	case rule.Timeout > 0:
		return rule.Timeout
	case rule.LongRunning:
		return f.cfg.LongRunningTimeout
	default:
		return f.cfg.DefaultTimeout
	}
}

// Forward sends r to the upstream according to rule. The returned Result
// always has a status code; on failure Err is set and Body is nil. The
// timeout covers the whole exchange, so the caller must stream the body
// and then Close the result.
func (f *Forwarder) Forward(r *http.Request, rule routing.Rule) *Result {
	start := time.Now()
	timeout := f.TimeoutFor(rule)

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	ctx, span := f.tracer.Start(ctx, "gateway.forward", trace.WithSpanKind(trace.SpanKindClient))
	tracing.SetRouteAttributes(span, rule.Name, string(rule.Mode), rule.LongRunning, timeout.Milliseconds())

	res := &Result{Rule: rule, cancel: cancel, span: span, start: start}

	targetURL := f.target.URL(upstreamPath(r.URL, rule), r.URL.RawQuery)
	out, err := http.NewRequestWithContext(ctx, r.Method, targetURL, nil)
	if err != nil {
		return res.fail(&TransportError{Upstream: f.target.Address(), Err: err})
	}

	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		out.Body = r.Body
		out.ContentLength = r.ContentLength
	}

	out.Header = r.Header.Clone()
	removeHopHeaders(out.Header)
	out.Host = f.target.Address()
	setForwardedHeaders(out.Header, r)
	tracing.Inject(ctx, out.Header)

	requestID := logging.GetRequestID(r.Context())
	tracing.SetUpstreamAttributes(span, r.Method, targetURL, requestID)

	resp, err := f.client.Do(out)
	if err != nil {
		ferr := f.classify(ctx, timeout, err)
		f.recordError(ferr)
		f.logger.WarnContext(r.Context(), "upstream request failed",
			"route", rule.Name,
			"method", r.Method,
			"url", targetURL,
			"error", ferr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return res.fail(ferr)
	}

	header := resp.Header.Clone()
	removeHopHeaders(header)

	res.StatusCode = resp.StatusCode
	res.Header = header
	res.Body = resp.Body
	res.classify = func(err error) error { return f.classify(ctx, timeout, err) }
	res.onError = f.recordError
	tracing.SetStatusCode(span, resp.StatusCode)
	return res
}

func (f *Forwarder) classify(ctx context.Context, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: timeout, Err: err}
	}
	return &TransportError{Upstream: f.target.Address(), Err: err}
}

func (f *Forwarder) recordError(err error) {
	if f.metrics != nil {
		f.metrics.RecordUpstreamError(errorKind(err))
	}
}

// upstreamPath maps the inbound path through rule, keeping the client's
// percent-encoding. When the escaped form no longer starts with the rule
// pattern (an encoded byte inside the matched prefix), the decoded path is
// used instead.
func upstreamPath(u *url.URL, rule routing.Rule) string {
	escaped := u.EscapedPath()
	if rule.Mode == routing.ModePrefix && !strings.HasPrefix(escaped, strings.TrimSuffix(rule.Pattern, "/")) {
		mapped := &url.URL{Path: rule.UpstreamPathFor(u.Path)}
		return mapped.EscapedPath()
	}
	return rule.UpstreamPathFor(escaped)
}

func setForwardedHeaders(h http.Header, r *http.Request) {
	if clientIP, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := h.Values("X-Forwarded-For"); len(prior) > 0 {
			clientIP = strings.Join(prior, ", ") + ", " + clientIP
		}
		h.Set("X-Forwarded-For", clientIP)
	}

	if h.Get("X-Forwarded-Host") == "" && r.Host != "" {
		h.Set("X-Forwarded-Host", r.Host)
	}
	if h.Get("X-Forwarded-Proto") == "" {
		proto := "http"
		if r.TLS != nil {
			proto = "https"
		}
		h.Set("X-Forwarded-Proto", proto)
	}
}
