package events

import (
	"net/url"
	"strings"
)

// Filter selects messages by event type and tab. Empty sets accept all.
type Filter struct {
	types map[string]bool
	tabID string
}

// ParseFilter reads ?types=tab.created,tab.closed and ?tab_id=... from q.
func ParseFilter(q url.Values) Filter {
	var f Filter
	if raw := q.Get("types"); raw != "" {
		f.types = make(map[string]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.types[t] = true
			}
		}
	}
	f.tabID = strings.TrimSpace(q.Get("tab_id"))
	return f
}

// Match reports whether msg passes the filter.
func (f Filter) Match(msg Message) bool {
	if f.types != nil && !f.types[msg.Type] {
		return false
	}
	return f.tabID == "" || f.tabID == msg.TabID
}
