// Package proxy forwards gateway requests to the upstream service.
//
// # Forwarding
//
// A Forwarder turns an inbound request and a matched routing.Rule into an
// upstream request. The method, raw query, and body are passed through
// unchanged and the body is streamed rather than buffered. Hop-by-hop
// headers are removed in both directions, Host is set to the upstream
// address, and X-Forwarded-For, X-Forwarded-Host, and X-Forwarded-Proto
// are added. W3C trace context is injected when tracing is enabled.
//
// Every request runs under a deadline taken from the rule: its own
// timeout if set, otherwise the long-running or default timeout. The
// deadline covers the whole exchange including the streamed body.
//
// # Results
//
// Forward returns a Result rather than writing to the client directly so
// the caller can record metrics and the journal around the write:
//
//	res := forwarder.Forward(r, rule)
//	defer res.Close()
//	n, err := res.WriteResponse(w)
//
// Failures map onto gateway status codes:
//
//	ErrUpstreamTimeout     -> 504 Gateway Timeout
//	ErrUpstreamTransport   -> 502 Bad Gateway
//	ErrUpstreamUnavailable -> 503 Service Unavailable (health gate, no connection made)
//
// Error bodies are always {"error": "..."}.
package proxy
