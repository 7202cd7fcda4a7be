package auth

import (
	"context"
	"net/http"
	"strings"

	"mercator-hq/callisto/pkg/config"
)

// Source is a request header that may carry a key.
type Source struct {
	// Header is the header name.
	Header string

	// Scheme, when set, must prefix the value, as in "Bearer <key>".
	Scheme string
}

// DefaultSources checks Authorization bearer tokens, then header.
func DefaultSources(header string) []Source {
	sources := []Source{{Header: "Authorization", Scheme: "Bearer"}}
	if header != "" && !strings.EqualFold(header, "Authorization") {
		sources = append(sources, Source{Header: header})
	}
	return sources
}

// Authenticator extracts and validates access keys from requests.
type Authenticator struct {
	validator *KeyValidator
	sources   []Source
}

// NewAuthenticator creates an authenticator reading keys from sources in
// order.
func NewAuthenticator(validator *KeyValidator, sources []Source) *Authenticator {
	return &Authenticator{validator: validator, sources: sources}
}

// FromConfig builds an authenticator for cfg, or returns nil when auth is
// disabled.
func FromConfig(cfg config.AuthConfig) *Authenticator {
	if !cfg.Enabled {
		return nil
	}
	return NewAuthenticator(NewKeyValidator(KeysFromConfig(cfg)), DefaultSources(cfg.Header))
}

// Authenticate validates the key carried by r. Errors wrap
// ErrUnauthorized.
func (a *Authenticator) Authenticate(r *http.Request) (KeyInfo, error) {
	secret, header, ok := a.extract(r)
	if !ok {
		return KeyInfo{}, ErrMissingKey
	}

	name, err := a.validator.Validate(secret)
	if err != nil {
		return KeyInfo{}, err
	}
	return KeyInfo{Name: name, Header: header}, nil
}

func (a *Authenticator) extract(r *http.Request) (secret, header string, ok bool) {
	for _, src := range a.sources {
		value := strings.TrimSpace(r.Header.Get(src.Header))
		if value == "" {
			continue
		}
		if src.Scheme == "" {
			return value, src.Header, true
		}
		scheme, token, found := strings.Cut(value, " ")
		if !found || !strings.EqualFold(scheme, src.Scheme) {
			continue
		}
		if token = strings.TrimSpace(token); token != "" {
			return token, src.Header, true
		}
	}
	return "", "", false
}

type contextKey struct{}

// WithKeyInfo returns a copy of ctx carrying info.
func WithKeyInfo(ctx context.Context, info KeyInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// KeyInfoFrom returns the key info stored by WithKeyInfo.
func KeyInfoFrom(ctx context.Context) (KeyInfo, bool) {
	info, ok := ctx.Value(contextKey{}).(KeyInfo)
	return info, ok
}
