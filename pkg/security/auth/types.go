package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is the root of every authentication failure.
var ErrUnauthorized = errors.New("unauthorized")

var (
	// ErrMissingKey means no key was found in any configured header.
	ErrMissingKey = fmt.Errorf("%w: missing access key", ErrUnauthorized)

	// ErrInvalidKey means the key is not configured.
	ErrInvalidKey = fmt.Errorf("%w: invalid access key", ErrUnauthorized)

	// ErrDisabledKey means the key is configured but disabled.
	ErrDisabledKey = fmt.Errorf("%w: access key disabled", ErrUnauthorized)
)

// Key is an accepted access key.
type Key struct {
	Name    string
	Secret  string
	Enabled bool
}

// KeyInfo identifies the key that authenticated a request.
type KeyInfo struct {
	// Name is the configured key name.
	Name string

	// Header is the request header the key was read from.
	Header string
}
