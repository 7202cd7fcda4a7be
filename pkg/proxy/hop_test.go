package proxy

import (
	"net/http"
	"testing"
)

func TestRemoveHopHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "keep-alive, X-Trace-Hop")
	h.Set("X-Trace-Hop", "1")
	h.Set("Keep-Alive", "timeout=5")
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Upgrade", "websocket")
	h.Set("Proxy-Authorization", "Basic Zm9vOmJhcg==")
	h.Set("Te", "trailers")
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer token")

	removeHopHeaders(h)

	for _, name := range []string{"Connection", "X-Trace-Hop", "Keep-Alive", "Transfer-Encoding", "Upgrade", "Proxy-Authorization", "Te"} {
		if h.Get(name) != "" {
			t.Errorf("%s was not removed", name)
		}
	}
	for _, name := range []string{"Content-Type", "Authorization"} {
		if h.Get(name) == "" {
			t.Errorf("%s should be kept", name)
		}
	}
}
