//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

var env *Env

// Env holds shared state for all integration tests.
type Env struct {
	BaseURL string
	Client  *http.Client
}

type tabInfo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	IsLoading    bool   `json:"is_loading"`
	CanGoBack    bool   `json:"can_go_back"`
	CanGoForward bool   `json:"can_go_forward"`
	MemoryBytes  uint64 `json:"memory_bytes"`
	ParentID     string `json:"parent_id"`
}

type memoryStats struct {
	CurrentBytes uint64 `json:"current_bytes"`
	PeakBytes    uint64 `json:"peak_bytes"`
	TabCount     int    `json:"tab_count"`
}

// ping checks that the daemon answers /health.
func (e *Env) ping() error {
	resp, err := e.Client.Get(e.BaseURL + "/health")
	if err != nil {
		return fmt.Errorf("server not reachable at %s: %w", e.BaseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func TestMain(m *testing.M) {
	baseURL := os.Getenv("BROWSERD_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8190"
	}

	env = &Env{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}

	if err := env.ping(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "integration: using browserd at %s\n", env.BaseURL)

	os.Exit(m.Run())
}

// --- HTTP helpers ---

func (e *Env) GET(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.Client.Get(e.BaseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (e *Env) PUT(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPut, path, body)
}

func (e *Env) POST(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, path, body)
}

func (e *Env) DELETE(t *testing.T, path string) *http.Response {
	t.Helper()
	return e.do(t, http.MethodDelete, path, nil)
}

func (e *Env) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("%s %s: marshal body: %v", method, path, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.BaseURL+path, r)
	if err != nil {
		t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// --- Assertion helpers ---

func requireStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, body)
	}
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func requireField[T comparable](t *testing.T, got, want T, name string) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

// --- Tab helpers ---

func tabPath(id, suffix string) string {
	if suffix == "" {
		return "/api/v1/tabs/" + id
	}
	return "/api/v1/tabs/" + id + "/" + suffix
}

// openTab creates a tab and registers its close as test cleanup.
func openTab(t *testing.T, url string) tabInfo {
	t.Helper()
	resp := env.POST(t, "/api/v1/tabs", map[string]any{"url": url})
	requireStatus(t, resp, http.StatusCreated)
	info := decodeJSON[tabInfo](t, resp)
	t.Cleanup(func() {
		req, _ := http.NewRequest(http.MethodDelete, env.BaseURL+tabPath(info.ID, ""), nil)
		if resp, err := env.Client.Do(req); err == nil {
			resp.Body.Close()
		}
	})
	return info
}

func memory(t *testing.T) memoryStats {
	t.Helper()
	resp := env.GET(t, "/api/v1/memory")
	requireStatus(t, resp, http.StatusOK)
	return decodeJSON[memoryStats](t, resp)
}
