package listener

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

type stubListener struct {
	net.Listener
	port int
}

func TestScan_SkipsBoundPorts(t *testing.T) {
	bound := map[int]bool{8080: true, 8081: true, 8082: true}
	var tried []int

	bind := func(port int) (net.Listener, error) {
		tried = append(tried, port)
		if bound[port] {
			return nil, syscall.EADDRINUSE
		}
		return stubListener{port: port}, nil
	}

	port, ln, err := Scan(PortRange{Start: 8080, End: 8090}, bind)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if port != 8083 {
		t.Errorf("port = %d, want 8083", port)
	}
	if ln.(stubListener).port != 8083 {
		t.Errorf("listener bound to %d, want 8083", ln.(stubListener).port)
	}
	if len(tried) != 4 {
		t.Errorf("tried %v, want ascending scan stopping at 8083", tried)
	}
	for i, p := range tried {
		if p != 8080+i {
			t.Errorf("attempt %d was port %d, want %d", i, p, 8080+i)
		}
	}
}

func TestScan_NoPortAvailable(t *testing.T) {
	bind := func(port int) (net.Listener, error) {
		return nil, syscall.EADDRINUSE
	}

	_, _, err := Scan(PortRange{Start: 9000, End: 9002}, bind)
	if !errors.Is(err, ErrNoPortAvailable) {
		t.Fatalf("error = %v, want ErrNoPortAvailable", err)
	}

	var npe *NoPortAvailableError
	if !errors.As(err, &npe) {
		t.Fatalf("error type = %T, want *NoPortAvailableError", err)
	}
	if npe.Start != 9000 || npe.End != 9002 {
		t.Errorf("range = %d-%d, want 9000-9002", npe.Start, npe.End)
	}
	if len(npe.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(npe.Attempts))
	}
	if !strings.Contains(err.Error(), "9000-9002") {
		t.Errorf("error message should name the range: %v", err)
	}
}

func TestScan_InvalidRange(t *testing.T) {
	calls := 0
	bind := func(port int) (net.Listener, error) {
		calls++
		return nil, nil
	}

	tests := []PortRange{
		{Start: 9000, End: 8999},
		{Start: 0, End: 10},
		{Start: 65530, End: 65536},
	}
	for _, r := range tests {
		if _, _, err := Scan(r, bind); err == nil {
			t.Errorf("Scan(%s) expected error", r)
		}
	}
	if calls != 0 {
		t.Errorf("bind called %d times for invalid ranges", calls)
	}
}

func TestScan_Deterministic(t *testing.T) {
	bind := func(port int) (net.Listener, error) {
		if port%2 == 0 {
			return nil, syscall.EADDRINUSE
		}
		return stubListener{port: port}, nil
	}

	first, _, _ := Scan(PortRange{Start: 8080, End: 8090}, bind)
	for i := 0; i < 5; i++ {
		port, _, _ := Scan(PortRange{Start: 8080, End: 8090}, bind)
		if port != first {
			t.Fatalf("scan %d returned %d, want %d", i, port, first)
		}
	}
}

func TestAcquire_RealSocket(t *testing.T) {
	held, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer held.Close()
	heldPort := held.Addr().(*net.TCPAddr).Port

	t.Run("occupied single port fails", func(t *testing.T) {
		_, err := Acquire(context.Background(), "127.0.0.1", PortRange{Start: heldPort, End: heldPort})
		if !errors.Is(err, ErrNoPortAvailable) {
			t.Fatalf("error = %v, want ErrNoPortAvailable", err)
		}
	})

	t.Run("skips occupied port", func(t *testing.T) {
		end := heldPort + 20
		if end > 65535 {
			t.Skip("reserved port too close to the top of the range")
		}
		binding, err := Acquire(context.Background(), "127.0.0.1", PortRange{Start: heldPort, End: end})
		if err != nil {
			t.Skipf("no free neighbour port: %v", err)
		}
		defer binding.Close()

		if binding.Port <= heldPort {
			t.Errorf("port = %d, want > %d", binding.Port, heldPort)
		}
		if binding.BoundAt.IsZero() {
			t.Error("BoundAt not set")
		}

		conn, err := net.Dial("tcp", binding.Addr())
		if err != nil {
			t.Fatalf("dial bound listener: %v", err)
		}
		conn.Close()
	})
}

func TestBinding_Rebind(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	binding := &Binding{Host: "127.0.0.1", Port: port, Listener: ln}

	if err := binding.Rebind(context.Background()); err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	defer binding.Close()

	if binding.Listener == ln {
		t.Error("expected a new listener after Rebind")
	}
	if got := binding.Listener.Addr().(*net.TCPAddr).Port; got != port {
		t.Errorf("rebound port = %d, want %d", got, port)
	}
}

func TestBinding_WritePortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "callisto.port")
	binding := &Binding{Port: 8083}

	if err := binding.WritePortFile(path); err != nil {
		t.Fatalf("WritePortFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read port file: %v", err)
	}
	if string(data) != "8083\n" {
		t.Errorf("port file = %q, want %q", string(data), "8083\n")
	}
}
