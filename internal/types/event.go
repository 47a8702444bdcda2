package types

import "time"

const (
	EventTabCreated    = "tab.created"
	EventTabClosed     = "tab.closed"
	EventTabLoading    = "tab.loading"
	EventTabNavigated  = "tab.navigated"
	EventTabStopped    = "tab.stopped"
	EventTabTitle      = "tab.title"
	EventActiveChanged = "active.changed"
)

// Event describes a tab state change published to subscribers.
type Event struct {
	Type      string    `json:"type"`
	TabID     string    `json:"tab_id,omitempty"`
	URL       string    `json:"url,omitempty"`
	Title     string    `json:"title,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
