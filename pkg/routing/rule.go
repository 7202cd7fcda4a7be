package routing

import (
	"strings"
	"time"
)

// Mode selects how a rule's pattern is compared with the request path.
type Mode string

const (
	// ModeExact matches the path exactly.
	ModeExact Mode = "exact"

	// ModePrefix matches the pattern and anything below it.
	ModePrefix Mode = "prefix"
)

// MethodAny matches every request method.
const MethodAny = "ANY"

// Rule maps inbound requests onto an upstream path.
type Rule struct {
	// Name identifies the rule in logs, metrics, and the journal.
	Name string

	// Method is an HTTP method or MethodAny.
	Method string

	// Pattern is the exact path or path prefix.
	Pattern string

	// Mode is ModeExact or ModePrefix.
	Mode Mode

	// UpstreamPath is the rewritten path for exact rules, or the base path
	// that the remainder is appended to for prefix rules.
	UpstreamPath string

	// Timeout bounds the whole upstream exchange.
	Timeout time.Duration

	// LongRunning marks generation-style endpoints.
	LongRunning bool

	// HealthGated rejects the request with 503 while the upstream is unhealthy.
	HealthGated bool
}

func (r Rule) matchesMethod(method string) bool {
	return r.Method == MethodAny || strings.EqualFold(r.Method, method)
}

func (r Rule) matchesPath(path string) bool {
	if r.Mode == ModeExact {
		return path == r.Pattern
	}

	if strings.HasSuffix(r.Pattern, "/") {
		return strings.HasPrefix(path, r.Pattern)
	}
	if !strings.HasPrefix(path, r.Pattern) {
		return false
	}
	rest := path[len(r.Pattern):]
	return rest == "" || rest[0] == '/'
}

// UpstreamPathFor returns the upstream path for an inbound path matched
// by this rule. Prefix rules append the remainder of the inbound path to
// UpstreamPath, joining them with exactly one slash.
func (r Rule) UpstreamPathFor(path string) string {
	if r.Mode == ModeExact {
		if r.UpstreamPath == "" {
			return path
		}
		return r.UpstreamPath
	}

	base := r.UpstreamPath
	if base == "" {
		base = r.Pattern
	}

	rest := strings.TrimPrefix(path, strings.TrimSuffix(r.Pattern, "/"))
	return joinPath(base, rest)
}

func joinPath(base, rest string) string {
	switch {
	case rest == "":
		return base
	case base == "":
		return rest
	}

	baseSlash := strings.HasSuffix(base, "/")
	restSlash := strings.HasPrefix(rest, "/")
	switch {
	case baseSlash && restSlash:
		return base + rest[1:]
	case !baseSlash && !restSlash:
		return base + "/" + rest
	}
	return base + rest
}

// key identifies a rule for duplicate detection.
func (r Rule) key() string {
	return strings.ToUpper(r.Method) + " " + string(r.Mode) + " " + r.Pattern
}
