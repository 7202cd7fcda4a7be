package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
)

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		ReadHeaderTimeout: time.Second,
		IdleTimeout:       time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

func TestServer_GracefulDrain(t *testing.T) {
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, "done")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()

	srv := New(handler, testGatewayConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	type result struct {
		body string
		err  error
	}
	inflight := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + addr + "/slow")
		if err != nil {
			inflight <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		inflight <- result{body: string(body), err: err}
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	res := <-inflight
	if res.err != nil || res.body != "done" {
		t.Errorf("in-flight request = %q, %v; want it to complete", res.body, res.err)
	}

	if err := <-served; err != nil {
		t.Errorf("Serve() after Shutdown returned %v, want nil", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() should be false after Serve returns")
	}

	if conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		conn.Close()
		t.Error("listener still accepting after Shutdown")
	}
}

func TestServer_ShutdownDeadline(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})
	defer close(release)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := New(handler, testGatewayConfig(), nil)
	go srv.Serve(ln)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/stuck")
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := srv.Shutdown(ctx); err == nil {
		t.Error("Shutdown() expected deadline error with a stuck request")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Shutdown() took %v, want it bounded by the context", elapsed)
	}
}

func TestServer_ServeReturnsAcceptError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := New(http.NotFoundHandler(), testGatewayConfig(), nil)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	time.Sleep(50 * time.Millisecond)
	ln.Close()

	select {
	case err := <-served:
		if err == nil {
			t.Error("Serve() should report the accept failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after the listener closed")
	}
}
