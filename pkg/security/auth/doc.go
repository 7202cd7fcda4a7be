// Package auth checks gateway access keys.
//
// When auth is enabled every forwarded request must carry one of the
// configured keys, either as "Authorization: Bearer <key>" or in the
// configured key header (X-API-Key by default). The gateway root, health,
// version, and metrics endpoints never require a key, and CORS preflight
// requests are answered before authentication.
//
// Keys are looked up by SHA-256 digest rather than compared as strings.
//
//	a := auth.FromConfig(cfg.Auth)
//	info, err := a.Authenticate(r)
//	if errors.Is(err, auth.ErrUnauthorized) {
//	    // 401
//	}
package auth
