package upstream

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Target is the parsed address of the upstream service.
type Target struct {
	Scheme   string
	Host     string
	Port     string
	BasePath string
}

// ParseTarget parses an upstream base URL such as "http://127.0.0.1:11434".
// The scheme must be http or https and the host must be present. When no
// port is given the scheme's default port is used.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse upstream url %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("upstream url %q: scheme must be http or https", raw)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("upstream url %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return Target{}, fmt.Errorf("upstream url %q: query and fragment are not allowed", raw)
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	return Target{
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Port:     port,
		BasePath: strings.TrimSuffix(u.EscapedPath(), "/"),
	}, nil
}

// Address returns host:port.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, t.Port)
}

// URL builds the absolute upstream URL for an escaped path and an optional
// raw query. Percent-encoded bytes in path are sent as given.
func (t Target) URL(escapedPath, rawQuery string) string {
	if !strings.HasPrefix(escapedPath, "/") {
		escapedPath = "/" + escapedPath
	}
	escapedPath = t.BasePath + escapedPath

	u := url.URL{
		Scheme:   t.Scheme,
		Host:     t.Address(),
		Path:     escapedPath,
		RawQuery: rawQuery,
	}
	if decoded, err := url.PathUnescape(escapedPath); err == nil {
		u.Path = decoded
		u.RawPath = escapedPath
	}
	return u.String()
}

func (t Target) String() string {
	return t.Scheme + "://" + t.Address() + t.BasePath
}
