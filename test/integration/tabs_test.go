//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCreateAndCloseTab(t *testing.T) {
	before := memory(t)

	resp := env.POST(t, "/api/v1/tabs", map[string]any{"url": "example.com"})
	requireStatus(t, resp, http.StatusCreated)
	tab := decodeJSON[tabInfo](t, resp)
	if tab.MemoryBytes == 0 {
		t.Fatal("expected non-zero memory_bytes for a new tab")
	}

	resp = env.GET(t, "/api/v1/active")
	requireStatus(t, resp, http.StatusOK)
	active := decodeJSON[tabInfo](t, resp)
	requireField(t, active.ID, tab.ID, "active id")

	resp = env.DELETE(t, tabPath(tab.ID, ""))
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = env.GET(t, tabPath(tab.ID, ""))
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	after := memory(t)
	requireField(t, after.CurrentBytes, before.CurrentBytes, "current_bytes")
}

func TestChildTabsClosedWithParent(t *testing.T) {
	parent := openTab(t, "https://example.com")

	resp := env.POST(t, "/api/v1/tabs", map[string]any{"parent_id": parent.ID})
	requireStatus(t, resp, http.StatusCreated)
	child := decodeJSON[tabInfo](t, resp)
	requireField(t, child.ParentID, parent.ID, "parent_id")

	resp = env.DELETE(t, tabPath(parent.ID, ""))
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = env.GET(t, tabPath(child.ID, ""))
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestSetTitle(t *testing.T) {
	tab := openTab(t, "")
	resp := env.PUT(t, tabPath(tab.ID, "title"), map[string]any{"title": "Integration"})
	requireStatus(t, resp, http.StatusOK)
	info := decodeJSON[tabInfo](t, resp)
	requireField(t, info.Title, "Integration", "title")
	requireField(t, info.MemoryBytes, tab.MemoryBytes+uint64(len("Integration")), "memory_bytes")
}

func TestInvalidTabID(t *testing.T) {
	resp := env.GET(t, tabPath("not-a-tab", ""))
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestMemoryPeakReset(t *testing.T) {
	openTab(t, "https://example.com/some/path")
	resp := env.POST(t, "/api/v1/memory/reset-peak", nil)
	requireStatus(t, resp, http.StatusOK)
	stats := decodeJSON[memoryStats](t, resp)
	requireField(t, stats.PeakBytes, stats.CurrentBytes, "peak_bytes")
}
