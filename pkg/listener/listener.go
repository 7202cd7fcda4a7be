package listener

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// PortRange is an inclusive range of TCP ports.
type PortRange struct {
	Start int
	End   int
}

// Validate checks that the range is ordered and inside 1-65535.
func (r PortRange) Validate() error {
	if r.Start < 1 || r.Start > 65535 || r.End < 1 || r.End > 65535 {
		return fmt.Errorf("port range %s outside 1-65535", r)
	}
	if r.End < r.Start {
		return fmt.Errorf("port range %s: end is lower than start", r)
	}
	return nil
}

// Size returns the number of ports in the range.
func (r PortRange) Size() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// BindFunc attempts an exclusive bind on port.
type BindFunc func(port int) (net.Listener, error)

// Scan calls bind for each port of r in ascending order and returns the
// first port that binds along with its listener. Scan has no side effects
// of its own; if no port binds it returns a *NoPortAvailableError.
func Scan(r PortRange, bind BindFunc) (int, net.Listener, error) {
	if err := r.Validate(); err != nil {
		return 0, nil, err
	}

	attempts := make([]error, 0, r.Size())
	for port := r.Start; port <= r.End; port++ {
		ln, err := bind(port)
		if err == nil {
			return port, ln, nil
		}
		attempts = append(attempts, fmt.Errorf("port %d: %w", port, err))
	}

	return 0, nil, &NoPortAvailableError{Start: r.Start, End: r.End, Attempts: attempts}
}

// Binding is the gateway's bound listening socket.
type Binding struct {
	Host     string
	Port     int
	BoundAt  time.Time
	Listener net.Listener
}

// Acquire binds a TCP listener on host at the first free port of r.
// A failed scan is not retried.
func Acquire(ctx context.Context, host string, r PortRange) (*Binding, error) {
	var lc net.ListenConfig

	port, ln, err := Scan(r, func(port int) (net.Listener, error) {
		return lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	})
	if err != nil {
		return nil, err
	}

	return &Binding{
		Host:     host,
		Port:     port,
		BoundAt:  time.Now(),
		Listener: ln,
	}, nil
}

// Addr returns the bound address as host:port.
func (b *Binding) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// Rebind opens a fresh listener on the same host and port, replacing the
// previous one. It is used after the accept loop has died.
func (b *Binding) Rebind(ctx context.Context) error {
	if b.Listener != nil {
		_ = b.Listener.Close()
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", b.Addr())
	if err != nil {
		return fmt.Errorf("rebind %s: %w", b.Addr(), err)
	}

	b.Listener = ln
	b.BoundAt = time.Now()
	return nil
}

// Close releases the listening socket.
func (b *Binding) Close() error {
	if b.Listener == nil {
		return nil
	}
	return b.Listener.Close()
}

// WritePortFile writes the bound port followed by a newline to path,
// creating parent directories as needed. The write is atomic.
func (b *Binding) WritePortFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create port file directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(b.Port)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write port file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write port file: %w", err)
	}
	return nil
}
