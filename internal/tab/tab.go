// Package tab implements a single browsing context and the byte accounting
// it registers with a memory pool.
package tab

import (
	"context"
	"errors"
	"sync"

	"github.com/dgnsrekt/tabcore/internal/history"
	"github.com/dgnsrekt/tabcore/internal/memory"
	"github.com/dgnsrekt/tabcore/internal/types"
)

// Overhead is the fixed metadata cost charged once per tab at creation.
// It is never part of a later delta.
const Overhead = 64

var (
	ErrStopped   = errors.New("tab: load stopped")
	ErrClosed    = errors.New("tab: closed")
	ErrNoHistory = errors.New("tab: no history entry in that direction")
)

// Loader performs the backend side of a load. It runs while the tab reports
// is_loading and must return once ctx is cancelled.
type Loader func(ctx context.Context) error

// Tab is a single browsing context.
//
// navMu serializes loads and history steps on the same tab. mu guards the
// fields and is never held while a Loader runs, so Stop, Info and Cleanup
// stay responsive during a slow load.
type Tab struct {
	id       string
	parentID string
	pool     *memory.Pool

	navMu sync.Mutex

	mu         sync.Mutex
	url        string
	title      string
	loading    bool
	attributed uint64
	history    *history.History
	loadSeq    uint64
	cancelLoad context.CancelFunc
	closed     bool

	pendingTitle string
	onCommit     func(types.TabInfo)
}

type Option func(*Tab)

// WithParent records the tab that opened this one.
func WithParent(parentID string) Option {
	return func(t *Tab) { t.parentID = parentID }
}

// WithCommitHook calls fn with a snapshot after every committed load or
// history step. fn runs with the tab's lock held and must not call back into
// the tab.
func WithCommitHook(fn func(types.TabInfo)) Option {
	return func(t *Tab) { t.onCommit = fn }
}

// WithHistorySize bounds the tab's navigation history.
func WithHistorySize(n int) Option {
	return func(t *Tab) { t.history = history.New(n) }
}

// New creates a tab and registers its initial footprint with pool.
func New(id, url string, pool *memory.Pool, opts ...Option) *Tab {
	t := &Tab{id: id, url: url, pool: pool}
	for _, opt := range opts {
		opt(t)
	}
	if t.history == nil {
		t.history = history.New(history.DefaultMaxSize)
	}
	t.history.Push(url, "")

	size := uint64(len(id) + len(url) + Overhead)
	pool.Allocate(size)
	t.attributed = size
	return t
}

func (t *Tab) ID() string       { return t.id }
func (t *Tab) ParentID() string { return t.parentID }

func (t *Tab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *Tab) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

func (t *Tab) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// AttributedBytes returns the bytes this tab currently holds in the pool.
func (t *Tab) AttributedBytes() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attributed
}

func (t *Tab) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// LoadURL runs load and, only if it succeeds, replaces the URL, applies the
// length delta to the pool and records the visit.
func (t *Tab) LoadURL(ctx context.Context, url string, load Loader) error {
	t.navMu.Lock()
	defer t.navMu.Unlock()

	return t.run(ctx, load, true, func() {
		t.setURLLocked(url)
		t.history.Push(url, t.title)
	})
}

// Reload runs load against the current URL. No accounting changes.
func (t *Tab) Reload(ctx context.Context, load Loader) error {
	t.navMu.Lock()
	defer t.navMu.Unlock()

	return t.run(ctx, load, false, func() {})
}

// StepBack runs load and, on success, moves to the previous history entry.
func (t *Tab) StepBack(ctx context.Context, load Loader) error {
	return t.step(ctx, -1, load)
}

// StepForward runs load and, on success, moves to the next history entry.
func (t *Tab) StepForward(ctx context.Context, load Loader) error {
	return t.step(ctx, 1, load)
}

func (t *Tab) step(ctx context.Context, offset int, load Loader) error {
	t.navMu.Lock()
	defer t.navMu.Unlock()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if _, ok := t.history.Peek(offset); !ok {
		t.mu.Unlock()
		return ErrNoHistory
	}
	t.mu.Unlock()

	return t.run(ctx, load, true, func() {
		var entry history.Entry
		if offset < 0 {
			entry, _ = t.history.Back()
		} else {
			entry, _ = t.history.Forward()
		}
		t.setURLLocked(entry.URL)
		t.setTitleLocked(entry.Title)
	})
}

// run drives idle -> loading -> idle around load. commit is called with mu
// held, only when load succeeded and was neither stopped nor closed. A title
// reported during the load is applied with the commit, and visit decides
// whether the commit hook fires. Callers hold navMu.
func (t *Tab) run(ctx context.Context, load Loader, visit bool, commit func()) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	loadCtx, cancel := context.WithCancel(ctx)
	t.loadSeq++
	seq := t.loadSeq
	t.cancelLoad = cancel
	t.loading = true
	t.pendingTitle = ""
	t.mu.Unlock()

	err := load(loadCtx)

	t.mu.Lock()
	defer t.mu.Unlock()
	cancel()

	current := t.loadSeq == seq
	if current {
		t.loading = false
		t.cancelLoad = nil
	}
	switch {
	case t.closed:
		return ErrClosed
	case !current:
		return ErrStopped
	case err != nil:
		return err
	}
	commit()
	if title := t.pendingTitle; title != "" {
		t.pendingTitle = ""
		t.setTitleLocked(title)
		t.history.SetCurrentTitle(title)
	}
	if visit && t.onCommit != nil {
		t.onCommit(t.infoLocked())
	}
	return nil
}

// ReportTitle records the page title the backend reported for the load
// running under ctx. It is applied only if that load commits.
func (t *Tab) ReportTitle(ctx context.Context, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ctx.Err() != nil || t.cancelLoad == nil {
		return
	}
	t.pendingTitle = title
}

// Stop cancels an in-flight load and forces the loading flag off. The
// interrupted load returns ErrStopped and applies nothing. Reports whether a
// load was in flight.
func (t *Tab) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.abortLocked()
}

func (t *Tab) abortLocked() bool {
	if t.cancelLoad == nil {
		return false
	}
	t.cancelLoad()
	t.cancelLoad = nil
	t.loadSeq++
	t.loading = false
	return true
}

// SetTitle replaces the title and applies the length delta to the pool.
func (t *Tab) SetTitle(title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.setTitleLocked(title)
	t.history.SetCurrentTitle(title)
	return nil
}

func (t *Tab) setURLLocked(url string) {
	delta := int64(len(url)) - int64(len(t.url))
	t.url = url
	t.applyDeltaLocked(delta)
}

func (t *Tab) setTitleLocked(title string) {
	delta := int64(len(title)) - int64(len(t.title))
	t.title = title
	t.applyDeltaLocked(delta)
}

func (t *Tab) applyDeltaLocked(delta int64) {
	switch {
	case delta > 0:
		t.pool.Allocate(uint64(delta))
		t.attributed += uint64(delta)
	case delta < 0:
		t.pool.Deallocate(uint64(-delta))
		t.attributed -= uint64(-delta)
	}
}

// Info returns a snapshot of the tab's observable fields.
func (t *Tab) Info() types.TabInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.infoLocked()
}

func (t *Tab) infoLocked() types.TabInfo {
	return types.TabInfo{
		ID:           t.id,
		URL:          t.url,
		Title:        t.title,
		IsLoading:    t.loading,
		CanGoBack:    !t.closed && t.history.CanGoBack(),
		CanGoForward: !t.closed && t.history.CanGoForward(),
		MemoryBytes:  t.attributed,
		ParentID:     t.parentID,
	}
}

// History returns the tab's visited entries, most recent first.
func (t *Tab) History() []history.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Entries()
}

// Cleanup releases every attributed byte in one deallocation, cancels any
// in-flight load and marks the tab closed. Only the first call has an
// effect; it returns the bytes released.
func (t *Tab) Cleanup() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}
	t.closed = true
	t.abortLocked()

	released := t.attributed
	t.attributed = 0
	t.pool.Deallocate(released)
	t.history.Clear()
	return released
}
