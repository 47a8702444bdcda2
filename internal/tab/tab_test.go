package tab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/tabcore/internal/memory"
	"github.com/dgnsrekt/tabcore/internal/types"
)

func okLoader(context.Context) error { return nil }

func TestNewRegistersInitialFootprint(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "about:blank", pool)

	want := uint64(len("tab-1") + len("about:blank") + Overhead)
	if got := tb.AttributedBytes(); got != want {
		t.Fatalf("AttributedBytes() = %d; want %d", got, want)
	}
	if got := pool.CurrentUsage(); got != want {
		t.Fatalf("pool CurrentUsage() = %d; want %d", got, want)
	}
}

func TestLoadURLAppliesOnlyNetDelta(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "about:blank", pool)
	before := pool.CurrentUsage()

	ctx := context.Background()
	if err := tb.LoadURL(ctx, "http://example.com/aaaa", okLoader); err != nil {
		t.Fatalf("LoadURL() error = %v", err)
	}
	if err := tb.LoadURL(ctx, "http://example.com/a", okLoader); err != nil {
		t.Fatalf("LoadURL() error = %v", err)
	}

	wantDelta := int64(len("http://example.com/a")) - int64(len("about:blank"))
	if got := int64(pool.CurrentUsage()) - int64(before); got != wantDelta {
		t.Fatalf("pool delta = %d; want %d", got, wantDelta)
	}
	if tb.AttributedBytes() != pool.CurrentUsage() {
		t.Fatalf("AttributedBytes() = %d; pool = %d", tb.AttributedBytes(), pool.CurrentUsage())
	}
	if tb.URL() != "http://example.com/a" {
		t.Fatalf("URL() = %q", tb.URL())
	}
}

func TestLoadURLSameURLIsZeroDelta(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "http://a", pool)
	before := pool.CurrentUsage()
	if err := tb.LoadURL(context.Background(), "http://a", okLoader); err != nil {
		t.Fatalf("LoadURL() error = %v", err)
	}
	if pool.CurrentUsage() != before {
		t.Fatalf("pool changed on same-URL load: %d -> %d", before, pool.CurrentUsage())
	}
}

func TestLoadURLFailureLeavesTabUntouched(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "about:blank", pool)
	before := pool.CurrentUsage()

	boom := errors.New("engine exploded")
	err := tb.LoadURL(context.Background(), "http://example.com", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("LoadURL() error = %v; want %v", err, boom)
	}
	if tb.URL() != "about:blank" {
		t.Fatalf("URL() = %q; want about:blank", tb.URL())
	}
	if tb.IsLoading() {
		t.Fatal("IsLoading() = true after failed load")
	}
	if pool.CurrentUsage() != before {
		t.Fatalf("pool changed on failed load: %d -> %d", before, pool.CurrentUsage())
	}
}

func TestIsLoadingDuringLoad(t *testing.T) {
	tb := New("tab-1", "about:blank", memory.NewPool())
	var during bool
	err := tb.LoadURL(context.Background(), "http://x", func(context.Context) error {
		during = tb.IsLoading()
		return nil
	})
	if err != nil {
		t.Fatalf("LoadURL() error = %v", err)
	}
	if !during {
		t.Fatal("IsLoading() = false while loader ran")
	}
	if tb.IsLoading() {
		t.Fatal("IsLoading() = true after load returned")
	}
}

func TestStopCancelsInFlightLoad(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "about:blank", pool)
	before := pool.CurrentUsage()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tb.LoadURL(context.Background(), "http://slow.example.com", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	if !tb.Stop() {
		t.Fatal("Stop() = false; want true with load in flight")
	}
	if tb.IsLoading() {
		t.Fatal("IsLoading() = true right after Stop()")
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("LoadURL() error = %v; want ErrStopped", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadURL() did not return after Stop()")
	}
	if tb.URL() != "about:blank" || pool.CurrentUsage() != before {
		t.Fatalf("stopped load applied state: url=%q pool=%d want %d", tb.URL(), pool.CurrentUsage(), before)
	}
	if tb.Stop() {
		t.Fatal("Stop() = true with nothing in flight")
	}
}

func TestSetTitleDeltaAccounting(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "about:blank", pool)
	before := pool.CurrentUsage()

	if err := tb.SetTitle("Example Domain"); err != nil {
		t.Fatalf("SetTitle() error = %v", err)
	}
	if err := tb.SetTitle("Ex"); err != nil {
		t.Fatalf("SetTitle() error = %v", err)
	}
	if got, want := pool.CurrentUsage()-before, uint64(len("Ex")); got != want {
		t.Fatalf("pool delta = %d; want %d", got, want)
	}
	if tb.AttributedBytes() != pool.CurrentUsage() {
		t.Fatalf("AttributedBytes() = %d; pool = %d", tb.AttributedBytes(), pool.CurrentUsage())
	}
}

func TestCleanupReleasesEverythingOnce(t *testing.T) {
	pool := memory.NewPool(memory.WithStrict())
	tb := New("tab-1", "about:blank", pool)
	_ = tb.LoadURL(context.Background(), "http://example.com/long/path", okLoader)
	_ = tb.SetTitle("title")

	released := tb.Cleanup()
	if released == 0 {
		t.Fatal("Cleanup() released 0 bytes")
	}
	if got := pool.CurrentUsage(); got != 0 {
		t.Fatalf("pool CurrentUsage() = %d; want 0", got)
	}
	if got := tb.Cleanup(); got != 0 {
		t.Fatalf("second Cleanup() = %d; want 0", got)
	}
	if err := tb.SetTitle("late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("SetTitle() after cleanup = %v; want ErrClosed", err)
	}
	if err := tb.LoadURL(context.Background(), "http://late", okLoader); !errors.Is(err, ErrClosed) {
		t.Fatalf("LoadURL() after cleanup = %v; want ErrClosed", err)
	}
	if got := pool.CurrentUsage(); got != 0 {
		t.Fatalf("pool CurrentUsage() after late mutations = %d; want 0", got)
	}
}

func TestCleanupDuringLoadDoesNotLeak(t *testing.T) {
	pool := memory.NewPool(memory.WithStrict())
	tb := New("tab-1", "about:blank", pool)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tb.LoadURL(context.Background(), "http://example.com/very/long/url", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		})
	}()
	<-started
	tb.Cleanup()

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("LoadURL() error = %v; want ErrClosed", err)
	}
	if got := pool.CurrentUsage(); got != 0 {
		t.Fatalf("pool CurrentUsage() = %d; want 0", got)
	}
}

func TestStepBackAndForward(t *testing.T) {
	pool := memory.NewPool()
	tb := New("tab-1", "about:blank", pool)
	ctx := context.Background()

	if err := tb.StepBack(ctx, okLoader); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("StepBack() on fresh tab = %v; want ErrNoHistory", err)
	}

	_ = tb.LoadURL(ctx, "http://one.example", okLoader)
	_ = tb.LoadURL(ctx, "http://two.example", okLoader)

	if err := tb.StepBack(ctx, okLoader); err != nil {
		t.Fatalf("StepBack() error = %v", err)
	}
	info := tb.Info()
	if info.URL != "http://one.example" || !info.CanGoForward || !info.CanGoBack {
		t.Fatalf("Info() after back = %+v", info)
	}
	if err := tb.StepForward(ctx, okLoader); err != nil {
		t.Fatalf("StepForward() error = %v", err)
	}
	if tb.URL() != "http://two.example" {
		t.Fatalf("URL() = %q; want http://two.example", tb.URL())
	}
	if tb.AttributedBytes() != pool.CurrentUsage() {
		t.Fatalf("AttributedBytes() = %d; pool = %d", tb.AttributedBytes(), pool.CurrentUsage())
	}
}

func TestInfoIsSnapshot(t *testing.T) {
	tb := New("tab-1", "about:blank", memory.NewPool(), WithParent("tab-0"))
	info := tb.Info()
	info.URL = "mutated"
	if tb.URL() != "about:blank" {
		t.Fatal("mutating Info() changed the tab")
	}
	if info.ParentID != "tab-0" {
		t.Fatalf("ParentID = %q; want tab-0", info.ParentID)
	}
}

func TestReportedTitleAppliedWithCommit(t *testing.T) {
	pool := memory.NewPool()
	var commits []types.TabInfo
	tb := New("tab-1", "about:blank", pool, WithCommitHook(func(info types.TabInfo) {
		commits = append(commits, info)
	}))
	ctx := context.Background()

	err := tb.LoadURL(ctx, "http://example.com", func(ctx context.Context) error {
		tb.ReportTitle(ctx, "Example Domain")
		return nil
	})
	if err != nil {
		t.Fatalf("LoadURL() error = %v", err)
	}
	if tb.Title() != "Example Domain" {
		t.Fatalf("Title() = %q; want Example Domain", tb.Title())
	}
	if len(commits) != 1 || commits[0].URL != "http://example.com" || commits[0].Title != "Example Domain" {
		t.Fatalf("commits = %+v", commits)
	}
	if tb.AttributedBytes() != pool.CurrentUsage() {
		t.Fatalf("AttributedBytes() = %d; pool = %d", tb.AttributedBytes(), pool.CurrentUsage())
	}

	boom := errors.New("engine exploded")
	_ = tb.LoadURL(ctx, "http://other.example", func(ctx context.Context) error {
		tb.ReportTitle(ctx, "Other")
		return boom
	})
	if tb.Title() != "Example Domain" || len(commits) != 1 {
		t.Fatalf("failed load applied title %q or fired hook (%d commits)", tb.Title(), len(commits))
	}

	if err := tb.Reload(ctx, okLoader); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("Reload() fired the commit hook; commits = %d", len(commits))
	}
}

func TestReportTitleIgnoredAfterStop(t *testing.T) {
	tb := New("tab-1", "about:blank", memory.NewPool())
	ctx := context.Background()

	var stale context.Context
	err := tb.LoadURL(ctx, "http://slow.example", func(ctx context.Context) error {
		stale = ctx
		tb.Stop()
		return nil
	})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("LoadURL() error = %v; want ErrStopped", err)
	}

	err = tb.LoadURL(ctx, "http://next.example", func(ctx context.Context) error {
		tb.ReportTitle(stale, "Stale")
		return nil
	})
	if err != nil {
		t.Fatalf("LoadURL() error = %v", err)
	}
	if tb.Title() != "" {
		t.Fatalf("Title() = %q; want empty, stale report applied", tb.Title())
	}
}
