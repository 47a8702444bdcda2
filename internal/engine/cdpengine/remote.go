// Package cdpengine drives a real Chrome over the DevTools protocol. Each
// tab ID maps to one Chrome page target, created by its first load.
package cdpengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

var (
	errClosed = errors.New("cdpengine: closed")
	errNoPage = errors.New("cdpengine: tab has no page")
)

// Remote implements engine.Engine, engine.TabCloser and engine.TitleReporter.
type Remote struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	tabs   map[string]*pageTarget
	closed bool
}

type pageTarget struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     target.ID
}

// New connects to the browser behind cdpURL.
func New(cdpURL string) (*Remote, error) {
	slog.Info("connecting to chrome", "cdp_url", cdpURL)
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run must use the NewContext context itself; a derived
	// context would bound the browser connection's lifetime.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Remote{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          make(map[string]*pageTarget),
	}, nil
}

// lookup returns tabID's page without creating one.
func (r *Remote) lookup(tabID string) (*pageTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errClosed
	}
	p, ok := r.tabs[tabID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoPage, tabID)
	}
	return p, nil
}

// page returns tabID's page, opening a new Chrome page if it has none. The
// page is created without holding r.mu and is discarded if ctx ended or the
// engine closed meanwhile.
func (r *Remote) page(ctx context.Context, tabID string) (*pageTarget, error) {
	p, err := r.lookup(tabID)
	if !errors.Is(err, errNoPage) {
		return p, err
	}

	pageCtx, cancel := chromedp.NewContext(r.browserCtx)
	created := make(chan error, 1)
	// The first Run must use pageCtx itself; it owns the target's lifetime.
	go func() { created <- chromedp.Run(pageCtx) }()
	select {
	case err := <-created:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("create page for %s: %w", tabID, err)
		}
	case <-ctx.Done():
		cancel()
		<-created
		return nil, ctx.Err()
	}
	p = &pageTarget{ctx: pageCtx, cancel: cancel}
	if c := chromedp.FromContext(pageCtx); c != nil && c.Target != nil {
		p.id = c.Target.TargetID
	}

	err = nil
	r.mu.Lock()
	existing, ok := r.tabs[tabID]
	switch {
	case r.closed:
		err = errClosed
	case ctx.Err() != nil:
		err = ctx.Err()
	case !ok:
		r.tabs[tabID] = p
		r.mu.Unlock()
		slog.Debug("chrome page created", "tab_id", tabID, "target_id", p.id)
		return p, nil
	}
	r.mu.Unlock()

	r.discard(tabID, p)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *Remote) discard(tabID string, p *pageTarget) {
	if err := chromedp.Cancel(p.ctx); err != nil {
		slog.Debug("chrome page close failed", "tab_id", tabID, "error", err)
	}
}

// run executes actions on p, bounded by ctx.
func (r *Remote) run(ctx context.Context, p *pageTarget, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// runExisting runs actions on tabID's page. It never opens a page.
func (r *Remote) runExisting(ctx context.Context, tabID string, actions ...chromedp.Action) error {
	p, err := r.lookup(tabID)
	if err != nil {
		return err
	}
	return r.run(ctx, p, actions...)
}

// Load navigates tabID's page, opening the page on first use.
func (r *Remote) Load(ctx context.Context, tabID, url string) error {
	p, err := r.page(ctx, tabID)
	if err != nil {
		return err
	}
	return r.run(ctx, p, chromedp.Navigate(url))
}

func (r *Remote) GoBack(ctx context.Context, tabID string) error {
	return r.runExisting(ctx, tabID, chromedp.NavigateBack())
}

func (r *Remote) GoForward(ctx context.Context, tabID string) error {
	return r.runExisting(ctx, tabID, chromedp.NavigateForward())
}

// Reload is a no-op for tabs that never reached Chrome.
func (r *Remote) Reload(ctx context.Context, tabID string) error {
	err := r.runExisting(ctx, tabID, chromedp.Reload())
	if errors.Is(err, errNoPage) {
		return nil
	}
	return err
}

// Stop is a no-op for tabs that never reached Chrome.
func (r *Remote) Stop(ctx context.Context, tabID string) error {
	err := r.runExisting(ctx, tabID, chromedp.Stop())
	if errors.Is(err, errNoPage) {
		return nil
	}
	return err
}

// Title returns the page title Chrome reports for tabID.
func (r *Remote) Title(ctx context.Context, tabID string) (string, error) {
	var title string
	if err := r.runExisting(ctx, tabID, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// MemoryUsage sums the used JS heap over every open page. Pages that fail to
// report, or close meanwhile, are skipped.
func (r *Remote) MemoryUsage(ctx context.Context) uint64 {
	var total uint64
	for _, tabID := range r.tabIDs() {
		var metrics []*performance.Metric
		err := r.runExisting(ctx, tabID, performance.Enable(), chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			metrics, err = performance.GetMetrics().Do(ctx)
			return err
		}))
		if err != nil {
			slog.Debug("chrome metrics unavailable", "tab_id", tabID, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		total += heapBytes(metrics)
	}
	return total
}

// CloseTab closes tabID's Chrome page. Unknown tabs are ignored.
func (r *Remote) CloseTab(ctx context.Context, tabID string) error {
	r.mu.Lock()
	p, ok := r.tabs[tabID]
	delete(r.tabs, tabID)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(p.ctx) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close page %s: %w", p.id, err)
		}
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

// Close closes every page created by this engine and disconnects. The remote
// browser process itself is left running.
func (r *Remote) Close() {
	r.mu.Lock()
	r.closed = true
	pages := r.tabs
	r.tabs = make(map[string]*pageTarget)
	r.mu.Unlock()

	for tabID, p := range pages {
		r.discard(tabID, p)
	}
	r.browserCancel()
	r.allocCancel()
}

func (r *Remote) tabIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tabs))
	for id := range r.tabs {
		ids = append(ids, id)
	}
	return ids
}

// heapBytes extracts JSHeapUsedSize from a metrics sample.
func heapBytes(metrics []*performance.Metric) uint64 {
	for _, m := range metrics {
		if m != nil && m.Name == "JSHeapUsedSize" && m.Value > 0 {
			return uint64(m.Value)
		}
	}
	return 0
}
