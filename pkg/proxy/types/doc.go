// Package types defines the JSON bodies the gateway writes itself.
//
// Forwarded responses are passed through untouched; only gateway-generated
// errors and the root summary use these types.
package types
