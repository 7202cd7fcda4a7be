package logging

import (
	"regexp"
	"strings"
)

// Redactor masks credentials that may appear in log fields, such as the
// Authorization header of a forwarded request or a URL with userinfo.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
	PatternURLUserinfo = "url_userinfo"
)

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}

	patterns := []struct {
		name        string
		regex       string
		replacement string
	}{
		{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
		{PatternAPIKey, `(sk-[a-zA-Z0-9_\-]+|api[-_]?key[-_:=]\s*[a-zA-Z0-9_\-]+)`, "sk-***"},
		{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s&]+`, "$1=***"},
		{PatternURLUserinfo, `(https?://)[^/\s:@]+:[^/\s@]+@`, "$1***@"},
	}

	for _, p := range patterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	return r
}

// RedactString masks every credential pattern found in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}

	return redacted
}

// IsSensitiveKey checks if a key name indicates sensitive data.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"authorization", "cookie",
		"private_key", "privatekey",
	}

	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}

	return false
}

// RedactValue masks a sensitive value, keeping a four character prefix
// of longer values for correlation.
func RedactValue(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "***"
	}
	return v[:4] + "***"
}
