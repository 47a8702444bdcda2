package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultLoadLatency is how long a simulated load takes.
const DefaultLoadLatency = 100 * time.Millisecond

type config struct {
	loadLatency time.Duration
}

func defaultConfig() config {
	return config{loadLatency: DefaultLoadLatency}
}

// Option configures the simulated backends.
type Option func(*config)

// WithLoadLatency sets how long a simulated load suspends. Zero completes
// immediately.
func WithLoadLatency(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.loadLatency = d
		}
	}
}

// simulated does no rendering. It logs each call and suspends for the
// configured latency on loads and reloads.
type simulated struct {
	name    string
	latency time.Duration
}

func newSimulated(name string, cfg config) simulated {
	return simulated{name: name, latency: cfg.loadLatency}
}

func (s simulated) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Load suspends for the configured latency, or until ctx is done.
func (s simulated) Load(ctx context.Context, tabID, url string) error {
	slog.Debug("engine load", "engine", s.name, "tab_id", tabID, "url", url)
	return s.wait(ctx)
}

func (s simulated) GoBack(ctx context.Context, tabID string) error {
	return s.call(ctx, "go_back", tabID)
}

func (s simulated) GoForward(ctx context.Context, tabID string) error {
	return s.call(ctx, "go_forward", tabID)
}

func (s simulated) Reload(ctx context.Context, tabID string) error {
	slog.Debug("engine call", "engine", s.name, "op", "reload", "tab_id", tabID)
	return s.wait(ctx)
}

func (s simulated) Stop(ctx context.Context, tabID string) error {
	return s.call(ctx, "stop", tabID)
}

// MemoryUsage is always zero; nothing is rendered.
func (s simulated) MemoryUsage(context.Context) uint64 {
	return 0
}

func (s simulated) call(ctx context.Context, op, tabID string) error {
	slog.Debug("engine call", "engine", s.name, "op", op, "tab_id", tabID)
	return ctx.Err()
}

// Servo is the simulated Rust-native backend.
type Servo struct {
	simulated
}

// WebKit is the simulated platform-bindings backend.
type WebKit struct {
	simulated
}
