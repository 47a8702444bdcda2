// Package browser coordinates tabs, the active-tab selection, per-instance
// memory accounting and the configured rendering engine.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/tabcore/internal/engine"
	"github.com/dgnsrekt/tabcore/internal/history"
	"github.com/dgnsrekt/tabcore/internal/memory"
	"github.com/dgnsrekt/tabcore/internal/tab"
	"github.com/dgnsrekt/tabcore/internal/types"
)

// BlankURL is the URL of a tab created without one.
const BlankURL = "about:blank"

// DefaultSessionHistorySize bounds the browser-wide visit log.
const DefaultSessionHistorySize = 1000

const closeTabTimeout = 5 * time.Second

// Publisher receives tab state changes.
type Publisher interface {
	Publish(evt types.Event)
}

// Browser owns the tab map, the active-tab cell and the memory pool for one
// session.
type Browser struct {
	engine      engine.Engine
	pool        *memory.Pool
	tabs        *tabMap
	historySize int
	navTimeout  time.Duration
	publisher   Publisher
	newID       func() string

	activeMu sync.Mutex
	activeID string

	sessionMu sync.Mutex
	session   *history.History
}

type Option func(*Browser)

// WithPool replaces the browser's private memory pool.
func WithPool(p *memory.Pool) Option {
	return func(b *Browser) { b.pool = p }
}

// WithHistorySize bounds each tab's navigation history.
func WithHistorySize(n int) Option {
	return func(b *Browser) { b.historySize = n }
}

// WithSessionHistorySize bounds the browser-wide visit log.
func WithSessionHistorySize(n int) Option {
	return func(b *Browser) { b.session = history.New(n) }
}

// WithNavigationTimeout bounds every engine navigation. Zero means no limit.
func WithNavigationTimeout(d time.Duration) Option {
	return func(b *Browser) { b.navTimeout = d }
}

// WithPublisher sends tab events to p.
func WithPublisher(p Publisher) Option {
	return func(b *Browser) { b.publisher = p }
}

// New creates a browser backed by eng.
func New(eng engine.Engine, opts ...Option) *Browser {
	b := &Browser{
		engine:      eng,
		tabs:        newTabMap(),
		historySize: history.DefaultMaxSize,
		newID:       newTabID,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.pool == nil {
		b.pool = memory.NewPool()
	}
	if b.session == nil {
		b.session = history.New(DefaultSessionHistorySize)
	}
	return b
}

// NewWithKind resolves kind to a simulated engine and creates a browser.
func NewWithKind(kind engine.Kind, opts ...Option) *Browser {
	return New(engine.New(kind), opts...)
}

// Pool returns the browser's memory pool.
func (b *Browser) Pool() *memory.Pool {
	return b.pool
}

// CreateTab opens a tab at url (about:blank when empty), makes it active and
// returns its ID.
func (b *Browser) CreateTab(url string) string {
	return b.createTab(url, "")
}

// CreateChildTab opens a tab recorded as a child of parentID. Children are
// closed with their parent.
func (b *Browser) CreateChildTab(parentID, url string) (string, error) {
	if _, ok := b.tabs.load(parentID); !ok {
		return "", notFound(parentID)
	}
	id := b.createTab(url, parentID)
	// A parent closed after the check above may have missed the new child.
	if _, ok := b.tabs.load(parentID); !ok {
		b.CloseTab(id)
		return "", notFound(parentID)
	}
	return id, nil
}

func (b *Browser) createTab(url, parentID string) string {
	if url == "" {
		url = BlankURL
	}
	opts := []tab.Option{tab.WithHistorySize(b.historySize), tab.WithCommitHook(b.recordVisit)}
	if parentID != "" {
		opts = append(opts, tab.WithParent(parentID))
	}

	// Insert and activation happen under activeMu so a CloseTab racing the
	// create either finds the tab active and reassigns, or runs first.
	var id string
	b.activeMu.Lock()
	for {
		id = b.newID()
		t := tab.New(id, url, b.pool, opts...)
		if b.tabs.insert(id, t) {
			break
		}
		t.Cleanup()
		slog.Warn("tab id collision, regenerating", "tab_id", id)
	}
	b.activeID = id
	b.activeMu.Unlock()

	b.publish(types.Event{Type: types.EventActiveChanged, TabID: id})
	slog.Debug("tab created", "tab_id", id, "url", url, "parent_id", parentID)
	b.publish(types.Event{Type: types.EventTabCreated, TabID: id, URL: url})
	return id
}

// CloseTab removes a tab, releases its attributed bytes and moves the active
// selection if needed. Children are closed too. Unknown IDs are a no-op.
func (b *Browser) CloseTab(id string) {
	t, ok := b.tabs.remove(id)
	if !ok {
		return
	}
	released := t.Cleanup()

	if closer, ok := b.engine.(engine.TabCloser); ok {
		ctx, cancel := context.WithTimeout(context.Background(), closeTabTimeout)
		if err := closer.CloseTab(ctx, id); err != nil {
			slog.Warn("engine tab close failed", "tab_id", id, "error", err)
		}
		cancel()
	}

	b.activeMu.Lock()
	if b.activeID == id {
		b.activeID, _ = b.tabs.anyKey()
		newActive := b.activeID
		b.activeMu.Unlock()
		b.publish(types.Event{Type: types.EventActiveChanged, TabID: newActive})
	} else {
		b.activeMu.Unlock()
	}

	slog.Debug("tab closed", "tab_id", id, "released_bytes", released)
	b.publish(types.Event{Type: types.EventTabClosed, TabID: id})

	for _, child := range b.ChildTabs(id) {
		b.CloseTab(child)
	}
}

// Navigate loads url in the tab. The tab's URL and accounting change only
// after the engine reports success.
func (b *Browser) Navigate(ctx context.Context, id, url string) error {
	t, ok := b.tabs.load(id)
	if !ok {
		return notFound(id)
	}
	ctx, cancel := b.navContext(ctx)
	defer cancel()

	err := t.LoadURL(ctx, url, func(ctx context.Context) error {
		b.publish(types.Event{Type: types.EventTabLoading, TabID: id, URL: url})
		if err := b.engine.Load(ctx, id, url); err != nil {
			return err
		}
		b.reportTitle(ctx, t)
		return nil
	})
	if err != nil {
		return b.navigationError(id, "load", err)
	}
	return nil
}

// GoBack asks the engine to go back and, on success, steps the tab's history.
func (b *Browser) GoBack(ctx context.Context, id string) error {
	return b.step(ctx, id, "go_back", (*tab.Tab).StepBack, b.engine.GoBack)
}

// GoForward asks the engine to go forward and, on success, steps the tab's history.
func (b *Browser) GoForward(ctx context.Context, id string) error {
	return b.step(ctx, id, "go_forward", (*tab.Tab).StepForward, b.engine.GoForward)
}

func (b *Browser) step(ctx context.Context, id, op string,
	move func(*tab.Tab, context.Context, tab.Loader) error,
	call func(context.Context, string) error) error {
	t, ok := b.tabs.load(id)
	if !ok {
		return notFound(id)
	}
	ctx, cancel := b.navContext(ctx)
	defer cancel()

	err := move(t, ctx, func(ctx context.Context) error {
		if err := call(ctx, id); err != nil {
			return err
		}
		b.reportTitle(ctx, t)
		return nil
	})
	if err != nil {
		return b.navigationError(id, op, err)
	}
	return nil
}

// Reload re-runs the current page load.
func (b *Browser) Reload(ctx context.Context, id string) error {
	t, ok := b.tabs.load(id)
	if !ok {
		return notFound(id)
	}
	ctx, cancel := b.navContext(ctx)
	defer cancel()

	err := t.Reload(ctx, func(ctx context.Context) error {
		b.publish(types.Event{Type: types.EventTabLoading, TabID: id, URL: t.URL()})
		return b.engine.Reload(ctx, id)
	})
	if err != nil {
		return b.navigationError(id, "reload", err)
	}
	return nil
}

// Stop cancels any in-flight load on the tab, forces its loading flag off and
// then forwards the stop to the engine. Stop always wins over a concurrent
// Navigate: that call returns NAVIGATION_STOPPED and applies nothing.
func (b *Browser) Stop(ctx context.Context, id string) error {
	t, ok := b.tabs.load(id)
	if !ok {
		return notFound(id)
	}
	if t.Stop() {
		b.publish(types.Event{Type: types.EventTabStopped, TabID: id, URL: t.URL()})
	}
	if err := b.engine.Stop(ctx, id); err != nil {
		return newError(CodeEngineFailure, "engine stop failed", err)
	}
	return nil
}

// SetTitle replaces the tab's title.
func (b *Browser) SetTitle(id, title string) error {
	t, ok := b.tabs.load(id)
	if !ok {
		return notFound(id)
	}
	if err := t.SetTitle(title); err != nil {
		return b.navigationError(id, "set_title", err)
	}
	b.publish(types.Event{Type: types.EventTabTitle, TabID: id, Title: title})
	return nil
}

// reportTitle hands the engine-reported title, if any, to the load running
// under ctx.
func (b *Browser) reportTitle(ctx context.Context, t *tab.Tab) {
	tr, ok := b.engine.(engine.TitleReporter)
	if !ok {
		return
	}
	title, err := tr.Title(ctx, t.ID())
	switch {
	case err != nil:
		slog.Debug("engine title lookup failed", "tab_id", t.ID(), "error", err)
	case title != "":
		t.ReportTitle(ctx, title)
	}
}

// recordVisit runs inside a tab's commit with info taken at commit time.
func (b *Browser) recordVisit(info types.TabInfo) {
	b.sessionMu.Lock()
	b.session.Push(info.URL, info.Title)
	b.sessionMu.Unlock()

	b.publish(types.Event{Type: types.EventTabNavigated, TabID: info.ID, URL: info.URL, Title: info.Title})
}

func (b *Browser) navigationError(id, op string, err error) error {
	switch {
	case errors.Is(err, tab.ErrStopped):
		return newError(CodeNavigationStopped, "navigation stopped: "+id, err)
	case errors.Is(err, tab.ErrClosed):
		return newError(CodeTabClosed, "tab closed: "+id, err)
	case errors.Is(err, tab.ErrNoHistory):
		return newError(CodeNoHistory, op+": no history entry for "+id, err)
	}
	slog.Warn("engine navigation failed", "tab_id", id, "op", op, "error", err)
	b.publish(types.Event{Type: types.EventTabNavigated, TabID: id, Error: err.Error()})
	return newError(CodeEngineFailure, "engine "+op+" failed", err)
}

func (b *Browser) navContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.navTimeout > 0 {
		return context.WithTimeout(ctx, b.navTimeout)
	}
	return context.WithCancel(ctx)
}

// ActiveTab returns the active tab ID, if any.
func (b *Browser) ActiveTab() (string, bool) {
	b.activeMu.Lock()
	defer b.activeMu.Unlock()
	return b.activeID, b.activeID != ""
}

// SetActiveTab focuses an existing tab.
func (b *Browser) SetActiveTab(id string) error {
	b.activeMu.Lock()
	if _, ok := b.tabs.load(id); !ok {
		b.activeMu.Unlock()
		return notFound(id)
	}
	b.activeID = id
	b.activeMu.Unlock()
	b.publish(types.Event{Type: types.EventActiveChanged, TabID: id})
	return nil
}

// TabIDs returns the IDs present at the time of the call, in no particular order.
func (b *Browser) TabIDs() []string {
	return b.tabs.keys()
}

// GetTab returns a snapshot of one tab.
func (b *Browser) GetTab(id string) (types.TabInfo, bool) {
	t, ok := b.tabs.load(id)
	if !ok {
		return types.TabInfo{}, false
	}
	return t.Info(), true
}

// Tabs returns snapshots of every tab ordered by ID. IDs are time-ordered,
// so this is creation order.
func (b *Browser) Tabs() []types.TabInfo {
	tabs := b.tabs.snapshot()
	out := make([]types.TabInfo, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, t.Info())
	}
	slices.SortFunc(out, func(x, y types.TabInfo) int {
		return strings.Compare(x.ID, y.ID)
	})
	return out
}

// ChildTabs returns the IDs of tabs opened from parentID.
func (b *Browser) ChildTabs(parentID string) []string {
	var out []string
	for _, t := range b.tabs.snapshot() {
		if t.ParentID() == parentID {
			out = append(out, t.ID())
		}
	}
	slices.Sort(out)
	return out
}

// TabHistory returns a tab's visited entries, most recent first.
func (b *Browser) TabHistory(id string) ([]history.Entry, error) {
	t, ok := b.tabs.load(id)
	if !ok {
		return nil, notFound(id)
	}
	return t.History(), nil
}

// SessionHistory returns successful navigations across all tabs, most recent first.
func (b *Browser) SessionHistory() []history.Entry {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()
	return b.session.Entries()
}

// MemoryStats reports pool counters, tab count and engine-reported bytes.
func (b *Browser) MemoryStats(ctx context.Context) types.MemoryStats {
	s := b.pool.Snapshot(b.tabs.len())
	s.EngineBytes = b.engine.MemoryUsage(ctx)
	cur, peak := s.MB()
	return types.MemoryStats{
		CurrentBytes: s.CurrentBytes,
		PeakBytes:    s.PeakBytes,
		CurrentMB:    cur,
		PeakMB:       peak,
		TabCount:     s.TabCount,
		EngineBytes:  s.EngineBytes,
		Underflows:   b.pool.Underflows(),
	}
}

// ResetPeak starts a new peak measurement window.
func (b *Browser) ResetPeak() {
	b.pool.ResetPeak()
}

// Close closes every tab. The pool is back to zero afterwards unless tabs
// are created concurrently.
func (b *Browser) Close(ctx context.Context) {
	for _, id := range b.tabs.keys() {
		if ctx.Err() != nil {
			slog.Warn("browser close interrupted", "remaining_tabs", b.tabs.len(), "error", ctx.Err())
			return
		}
		b.CloseTab(id)
	}
	b.activeMu.Lock()
	if b.tabs.len() == 0 {
		b.activeID = ""
	}
	b.activeMu.Unlock()
	slog.Info("browser closed", "current_bytes", b.pool.CurrentUsage(), "peak_bytes", b.pool.PeakUsage())
}

func (b *Browser) publish(evt types.Event) {
	if b.publisher == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.publisher.Publish(evt)
}
