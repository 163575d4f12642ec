package upstream

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/powerstrip/powerstrip/internal/config"
	"github.com/powerstrip/powerstrip/internal/errs"
)

func TestDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	d := New(config.UpstreamSelector{Network: config.UpstreamTCP, Address: ln.Addr().String()})
	conn, err := d.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()

	if got := d.Authority(); got != ln.Addr().String() {
		t.Fatalf("Authority() = %q, want %q", got, ln.Addr().String())
	}
}

func TestDialUnix(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "docker.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	d := New(config.UpstreamSelector{Network: config.UpstreamUnix, Address: sockPath})
	conn, err := d.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()

	if got := d.Authority(); got != "docker" {
		t.Fatalf("Authority() = %q, want \"docker\"", got)
	}
}

func TestDialFailureIsUpstreamError(t *testing.T) {
	d := New(config.UpstreamSelector{Network: config.UpstreamTCP, Address: "127.0.0.1:1"})
	_, err := d.Dial(context.Background())

	var upstreamErr *errs.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected *errs.UpstreamError, got %v", err)
	}
}
