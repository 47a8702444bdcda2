package netutil

import (
	"errors"
	"net"
	"testing"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func TestListenPreferredFree(t *testing.T) {
	addr := freeAddr(t)

	ln, err := Listen(addr, nil, false)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	if got := ln.Addr().String(); got != addr {
		t.Fatalf("Listen() addr = %q, want %q", got, addr)
	}
	if _, err := Listen(addr, nil, false); err == nil {
		t.Fatal("Listen() on bound address error = nil; want in-use error")
	}
}

func TestListenFallback(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen busy: %v", err)
	}
	defer func() { _ = busy.Close() }()

	free := freeAddr(t)
	ln, err := Listen(busy.Addr().String(), []string{busy.Addr().String(), free}, true)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	if got := ln.Addr().String(); got != free {
		t.Fatalf("Listen() addr = %q, want %q", got, free)
	}
}

func TestListenNoCandidates(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen busy: %v", err)
	}
	defer func() { _ = busy.Close() }()

	_, err = Listen(busy.Addr().String(), []string{busy.Addr().String()}, true)
	if !errors.Is(err, ErrNoBindAddr) {
		t.Fatalf("Listen() error = %v, want ErrNoBindAddr", err)
	}
}

func TestListenEmptyPreferredUsesCandidates(t *testing.T) {
	free := freeAddr(t)
	ln, err := Listen("", []string{free}, false)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	if got := ln.Addr().String(); got != free {
		t.Fatalf("Listen() addr = %q, want %q", got, free)
	}
}
