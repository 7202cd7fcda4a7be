package upstream

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Target
		wantErr bool
	}{
		{
			name: "host and port",
			raw:  "http://127.0.0.1:11434",
			want: Target{Scheme: "http", Host: "127.0.0.1", Port: "11434"},
		},
		{
			name: "default http port",
			raw:  "http://localhost",
			want: Target{Scheme: "http", Host: "localhost", Port: "80"},
		},
		{
			name: "default https port with base path",
			raw:  "https://models.internal/v2/",
			want: Target{Scheme: "https", Host: "models.internal", Port: "443", BasePath: "/v2"},
		},
		{name: "unsupported scheme", raw: "ftp://127.0.0.1:21", wantErr: true},
		{name: "missing host", raw: "http://:8080", wantErr: true},
		{name: "query not allowed", raw: "http://127.0.0.1:11434?x=1", wantErr: true},
		{name: "not a url", raw: "://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTarget(%q) expected error, got %+v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTarget(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseTarget(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTarget_URL(t *testing.T) {
	target := Target{Scheme: "http", Host: "127.0.0.1", Port: "11434"}

	if got, want := target.URL("/api/tags", ""), "http://127.0.0.1:11434/api/tags"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	if got, want := target.URL("api/tags", "verbose=true"), "http://127.0.0.1:11434/api/tags?verbose=true"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	if got, want := target.URL("/api/blobs/a%2Fb", "x=1"), "http://127.0.0.1:11434/api/blobs/a%2Fb?x=1"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	if got, want := target.URL("/api/show/my%20model", ""), "http://127.0.0.1:11434/api/show/my%20model"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	based := Target{Scheme: "https", Host: "::1", Port: "8443", BasePath: "/v2"}
	if got, want := based.URL("/models", ""), "https://[::1]:8443/v2/models"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	if got, want := based.String(), "https://[::1]:8443/v2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
