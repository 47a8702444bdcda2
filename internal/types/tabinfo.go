package types

// TabInfo is an immutable point-in-time copy of a tab's observable fields.
// It is the only shape in which tab state leaves the browser core.
type TabInfo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	IsLoading    bool   `json:"is_loading"`
	CanGoBack    bool   `json:"can_go_back"`
	CanGoForward bool   `json:"can_go_forward"`
	MemoryBytes  uint64 `json:"memory_bytes"`
	ParentID     string `json:"parent_id,omitempty"`
}

// MemoryStats reports attributed and engine-reported memory.
type MemoryStats struct {
	CurrentBytes uint64  `json:"current_bytes"`
	PeakBytes    uint64  `json:"peak_bytes"`
	CurrentMB    float64 `json:"current_mb"`
	PeakMB       float64 `json:"peak_mb"`
	TabCount     int     `json:"tab_count"`
	EngineBytes  uint64  `json:"engine_bytes"`
	Underflows   uint64  `json:"underflows,omitempty"`
}
