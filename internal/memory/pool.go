// Package memory tracks approximate byte usage attributed by tabs.
// The pool owns no buffers; it only keeps counters.
package memory

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Pool holds current and peak attributed bytes for one browser instance.
type Pool struct {
	current    atomic.Uint64
	peak       atomic.Uint64
	underflows atomic.Uint64
	strict     bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithStrict makes an accounting underflow panic instead of clamping to zero.
func WithStrict() Option {
	return func(p *Pool) { p.strict = true }
}

func NewPool(opts ...Option) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allocate adds size to the current total and returns the new total.
func (p *Pool) Allocate(size uint64) uint64 {
	current := p.current.Add(size)
	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			return current
		}
	}
}

// Deallocate subtracts size from the current total. Releasing more than is
// tracked is an invariant violation: strict pools panic, others clamp to zero
// and log a warning.
func (p *Pool) Deallocate(size uint64) {
	for {
		current := p.current.Load()
		if size > current {
			p.underflows.Add(1)
			if p.strict {
				panic(fmt.Sprintf("memory pool underflow: release %d bytes with %d tracked", size, current))
			}
			if !p.current.CompareAndSwap(current, 0) {
				p.underflows.Add(^uint64(0))
				continue
			}
			slog.Warn("memory pool underflow", "release_bytes", size, "tracked_bytes", current)
			return
		}
		if p.current.CompareAndSwap(current, current-size) {
			return
		}
	}
}

// CurrentUsage returns the bytes currently attributed.
func (p *Pool) CurrentUsage() uint64 {
	return p.current.Load()
}

// PeakUsage returns the high-water mark of the current measurement window.
// It never reports less than the current usage it observes.
func (p *Pool) PeakUsage() uint64 {
	peak := p.peak.Load()
	if current := p.current.Load(); current > peak {
		return current
	}
	return peak
}

// ResetPeak starts a new measurement window.
func (p *Pool) ResetPeak() {
	p.peak.Store(0)
}

// Underflows returns how many deallocations exceeded the tracked total.
func (p *Pool) Underflows() uint64 {
	return p.underflows.Load()
}
