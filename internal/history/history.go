// Package history keeps a bounded list of visited pages with a back/forward cursor.
package history

import "time"

// DefaultMaxSize bounds a tab's history when no size is configured.
const DefaultMaxSize = 100

// Entry is one visited page.
type Entry struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a bounded list of visited entries with a back/forward cursor.
// It is not safe for concurrent use; owners serialize access.
type History struct {
	entries []Entry
	maxSize int
	pos     int // index of the current entry, -1 when empty
}

// New creates a History holding at most maxSize entries.
func New(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{
		entries: make([]Entry, 0, min(maxSize, 16)),
		maxSize: maxSize,
		pos:     -1,
	}
}

// Push records a visit. Forward entries past the cursor are dropped, and the
// oldest entry is evicted when the history is full.
func (h *History) Push(url, title string) {
	if h.pos < len(h.entries)-1 {
		clear(h.entries[h.pos+1:])
		h.entries = h.entries[:h.pos+1]
	}
	if len(h.entries) >= h.maxSize {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = Entry{}
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, Entry{URL: url, Title: title, Timestamp: time.Now()})
	h.pos = len(h.entries) - 1
}

// Get returns the entry at index, oldest first.
func (h *History) Get(index int) (Entry, bool) {
	if index < 0 || index >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[index], true
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) MaxSize() int {
	return h.maxSize
}

func (h *History) Clear() {
	h.entries = h.entries[:0]
	h.pos = -1
}

// Current returns the entry under the cursor.
func (h *History) Current() (Entry, bool) {
	return h.Get(h.pos)
}

// SetCurrentTitle updates the title of the entry under the cursor.
func (h *History) SetCurrentTitle(title string) {
	if h.pos >= 0 && h.pos < len(h.entries) {
		h.entries[h.pos].Title = title
	}
}

func (h *History) CanGoBack() bool {
	return h.pos > 0
}

func (h *History) CanGoForward() bool {
	return h.pos >= 0 && h.pos < len(h.entries)-1
}

// Back moves the cursor one entry back.
func (h *History) Back() (Entry, bool) {
	if !h.CanGoBack() {
		return Entry{}, false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves the cursor one entry forward.
func (h *History) Forward() (Entry, bool) {
	if !h.CanGoForward() {
		return Entry{}, false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Peek returns the entry offset steps from the cursor without moving it.
func (h *History) Peek(offset int) (Entry, bool) {
	if h.pos < 0 {
		return Entry{}, false
	}
	return h.Get(h.pos + offset)
}

// Entries returns a copy of all entries, most recent first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}
