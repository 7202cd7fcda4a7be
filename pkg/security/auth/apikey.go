package auth

import (
	"crypto/sha256"

	"mercator-hq/callisto/pkg/config"
)

type keyEntry struct {
	name    string
	enabled bool
}

// KeyValidator validates access keys against a fixed set.
type KeyValidator struct {
	keys map[[sha256.Size]byte]keyEntry
}

// NewKeyValidator creates a validator accepting keys.
func NewKeyValidator(keys []Key) *KeyValidator {
	m := make(map[[sha256.Size]byte]keyEntry, len(keys))
	for _, k := range keys {
		m[sha256.Sum256([]byte(k.Secret))] = keyEntry{name: k.Name, enabled: k.Enabled}
	}
	return &KeyValidator{keys: m}
}

// KeysFromConfig converts configured access keys.
func KeysFromConfig(cfg config.AuthConfig) []Key {
	keys := make([]Key, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys = append(keys, Key{Name: k.Name, Secret: k.Key, Enabled: !k.Disabled})
	}
	return keys
}

// Validate returns the name of the key matching secret.
func (v *KeyValidator) Validate(secret string) (string, error) {
	entry, ok := v.keys[sha256.Sum256([]byte(secret))]
	if !ok {
		return "", ErrInvalidKey
	}
	if !entry.enabled {
		return "", ErrDisabledKey
	}
	return entry.name, nil
}

// Len returns the number of configured keys, disabled ones included.
func (v *KeyValidator) Len() int {
	return len(v.keys)
}
