package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// docsPages maps each docs route to its page.
var docsPages = map[string]string{
	"/docs":        apiDocsHTML,
	"/docs/events": eventsDocsHTML,
}

func mountDocs(router chi.Router) {
	for path, page := range docsPages {
		router.Get(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if _, err := w.Write([]byte(page)); err != nil {
				slog.Debug("docs response write failed", "path", path, "error", err)
			}
		})
	}
}

const docsNavStyle = `.docs-nav {
      position: fixed; top: 12px; right: 16px; z-index: 9999;
      display: flex; gap: 8px;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      font-size: 12px; font-weight: 500;
    }
    .docs-nav a {
      background: #161b22; border: 1px solid #30363d; border-radius: 6px;
      color: #58a6ff; padding: 5px 12px; text-decoration: none;
    }`

const docsNav = `<nav class="docs-nav"><a href="/docs">REST API</a><a href="/docs/events">Event Stream</a></nav>`

const apiDocsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Tab Core API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    ` + docsNavStyle + `
  </style>
</head>
<body style="height: 100vh; margin: 0; position: relative;">
  ` + docsNav + `
  <elements-api apiDescriptionUrl="/openapi.json" router="hash" layout="sidebar"
    tryItCredentialsPolicy="same-origin" darkMode />
</body>
</html>`

const eventsDocsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Event Stream · Tab Core</title>
  <style>
    body {
      margin: 0 auto;
      max-width: 860px;
      padding: 24px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
    }
    a { color: #58a6ff; text-decoration: none; }
    h1, h2 { color: #e6edf3; }
    code, pre {
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 13px;
    }
    pre {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 16px;
      overflow-x: auto;
    }
    table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
    th, td { border: 1px solid #30363d; padding: 6px 10px; text-align: left; }
    th { background: #161b22; }
    ` + docsNavStyle + `
  </style>
</head>
<body>
  ` + docsNav + `
  <h1>Event Stream</h1>
  <p>Tab state changes are published as JSON events over Server-Sent Events or a WebSocket.</p>

  <h2>Endpoints</h2>
  <table>
    <thead><tr><th>Method</th><th>Path</th><th>Transport</th></tr></thead>
    <tbody>
      <tr><td>GET</td><td><code>/api/v1/events</code></td><td>SSE, <code>event:</code> is the event type</td></tr>
      <tr><td>GET</td><td><code>/api/v1/events/ws</code></td><td>WebSocket, one text frame per event</td></tr>
    </tbody>
  </table>

  <h2>Query Parameters</h2>
  <table>
    <thead><tr><th>Name</th><th>Description</th></tr></thead>
    <tbody>
      <tr><td><code>types</code></td><td>Comma-separated event types to receive. Omit for all.</td></tr>
      <tr><td><code>tab_id</code></td><td>Only events for this tab.</td></tr>
    </tbody>
  </table>

  <h2>Event Types</h2>
  <table>
    <thead><tr><th>Type</th><th>Sent when</th></tr></thead>
    <tbody>
      <tr><td><code>tab.created</code></td><td>A tab was opened.</td></tr>
      <tr><td><code>tab.closed</code></td><td>A tab was closed and its bytes released.</td></tr>
      <tr><td><code>tab.loading</code></td><td>A load or reload started.</td></tr>
      <tr><td><code>tab.navigated</code></td><td>A navigation committed, or failed with <code>error</code> set.</td></tr>
      <tr><td><code>tab.stopped</code></td><td>An in-flight load was stopped.</td></tr>
      <tr><td><code>tab.title</code></td><td>The title changed.</td></tr>
      <tr><td><code>active.changed</code></td><td>The active tab changed; empty <code>tab_id</code> means none.</td></tr>
    </tbody>
  </table>

  <h2>Payload</h2>
  <pre><code>event: tab.navigated
data: {"type":"tab.navigated","tab_id":"tab-0190e5a2-...","url":"https://example.com/","title":"Example Domain","timestamp":"2026-01-01T00:00:00Z"}</code></pre>

  <h2>Examples</h2>
  <pre><code>curl -N 'http://127.0.0.1:8190/api/v1/events?types=tab.navigated,tab.closed'</code></pre>
  <pre><code>const ws = new WebSocket('ws://127.0.0.1:8190/api/v1/events/ws');
ws.onmessage = (e) => console.log(JSON.parse(e.data));</code></pre>
  <p>Slow consumers have events dropped rather than blocking tab operations.</p>
</body>
</html>`
