package chromium

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func TestArgs(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9333, ProfileDir: "/tmp/p", Headless: true, ExtraArgs: []string{"--mute-audio"}})
	args := l.args()

	for _, want := range []string{
		"--remote-debugging-port=9333",
		"--remote-debugging-address=127.0.0.1",
		"--user-data-dir=/tmp/p",
		"--window-size=1280,800",
		"--headless=new",
		"--mute-audio",
	} {
		if !slices.Contains(args, want) {
			t.Fatalf("args() = %v; missing %q", args, want)
		}
	}
	if args[len(args)-1] != "about:blank" {
		t.Fatalf("last arg = %q; want about:blank", args[len(args)-1])
	}

	l = NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: 9333})
	if slices.Contains(l.args(), "--headless=new") {
		t.Fatal("args() contains --headless=new when Headless is false")
	}
}

func TestCDPURL(t *testing.T) {
	l := NewLauncher(Config{CDPAddress: "::1", CDPPort: 9222})
	if got := l.CDPURL(); got != "http://[::1]:9222" {
		t.Fatalf("CDPURL() = %q; want http://[::1]:9222", got)
	}
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"Browser":"HeadlessChrome"}`))
	}))
	defer srv.Close()

	if err := WaitReady(context.Background(), srv.URL, 5*time.Second); err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("calls = %d; want at least 2", calls.Load())
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := WaitReady(context.Background(), srv.URL, 300*time.Millisecond); err == nil {
		t.Fatal("WaitReady() error = nil; want timeout")
	}
}

func TestStopWithoutLaunch(t *testing.T) {
	l := NewLauncher(Config{})
	l.Stop()
	if l.Running() {
		t.Fatal("Running() = true; want false")
	}
}

func TestFindBinaryExplicitMissing(t *testing.T) {
	if _, err := findBinary("/nonexistent/chromium"); err == nil {
		t.Fatal("findBinary() error = nil; want stat error")
	}
}
