// Package chromium starts a local headless Chromium whose DevTools endpoint
// backs the CDP engine.
package chromium

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"
)

const (
	defaultReadyTimeout = 15 * time.Second
	stopGrace           = 5 * time.Second
)

// Config holds Chromium launch configuration.
type Config struct {
	CDPAddress   string
	CDPPort      int
	ProfileDir   string
	BinaryPath   string // empty means search PATH
	Headless     bool
	WindowSize   string
	ExtraArgs    []string
	ReadyTimeout time.Duration
}

// Launcher manages the lifecycle of one Chromium process.
type Launcher struct {
	cfg Config

	mu      sync.Mutex
	cmd     *exec.Cmd
	running bool
}

// NewLauncher creates a launcher with defaults filled in.
func NewLauncher(cfg Config) *Launcher {
	if cfg.WindowSize == "" {
		cfg.WindowSize = "1280,800"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	return &Launcher{cfg: cfg}
}

// CDPURL is the DevTools HTTP endpoint the launched process listens on.
func (l *Launcher) CDPURL() string {
	return "http://" + net.JoinHostPort(l.cfg.CDPAddress, strconv.Itoa(l.cfg.CDPPort))
}

func findBinary(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("chromium binary: %w", err)
		}
		return explicit, nil
	}
	candidates := []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried %v)", candidates)
}

func (l *Launcher) args() []string {
	args := []string{
		"--remote-debugging-port=" + strconv.Itoa(l.cfg.CDPPort),
		"--remote-debugging-address=" + l.cfg.CDPAddress,
		"--user-data-dir=" + l.cfg.ProfileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-dev-shm-usage",
		"--disable-breakpad",
		"--window-size=" + l.cfg.WindowSize,
	}
	if l.cfg.Headless {
		args = append(args, "--headless=new")
	}
	args = append(args, l.cfg.ExtraArgs...)
	return append(args, "about:blank")
}

func portInUse(address string, port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(address, strconv.Itoa(port)), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Launch starts Chromium unless something already listens on the CDP port,
// then waits until the DevTools endpoint answers.
func (l *Launcher) Launch(ctx context.Context) error {
	if portInUse(l.cfg.CDPAddress, l.cfg.CDPPort) {
		slog.Info("chromium already running, skipping launch",
			"address", l.cfg.CDPAddress, "port", l.cfg.CDPPort)
		return WaitReady(ctx, l.CDPURL(), l.cfg.ReadyTimeout)
	}

	binary, err := findBinary(l.cfg.BinaryPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	cmd := exec.Command(binary, l.args()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start chromium: %w", err)
	}
	l.mu.Lock()
	l.cmd = cmd
	l.running = true
	l.mu.Unlock()
	slog.Info("chromium process started", "path", binary, "pid", cmd.Process.Pid, "headless", l.cfg.Headless)

	if err := WaitReady(ctx, l.CDPURL(), l.cfg.ReadyTimeout); err != nil {
		l.Stop()
		return fmt.Errorf("waiting for CDP: %w", err)
	}
	slog.Info("CDP endpoint ready", "cdp_url", l.CDPURL())
	return nil
}

// WaitReady polls cdpURL's /json/version until it returns 200, ctx is done or
// timeout elapses.
func WaitReady(ctx context.Context, cdpURL string, timeout time.Duration) error {
	url := cdpURL + "/json/version"
	deadline := time.After(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("CDP did not become ready within %s at %s", timeout, url)
		case <-ticker.C:
		}
	}
}

// Running reports whether this launcher spawned a process that has not been stopped.
func (l *Launcher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Stop terminates the process with SIGTERM, falling back to SIGKILL. It is a
// no-op when nothing was launched.
func (l *Launcher) Stop() {
	l.mu.Lock()
	cmd := l.cmd
	l.cmd = nil
	l.running = false
	l.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	slog.Info("stopping chromium", "pid", cmd.Process.Pid)
	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("chromium stopped gracefully")
	case <-time.After(stopGrace):
		slog.Warn("chromium did not exit, sending SIGKILL")
		_ = cmd.Process.Kill()
		<-done
	}
}
