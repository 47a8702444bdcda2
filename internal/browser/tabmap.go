package browser

import (
	"hash/maphash"
	"sync"

	"github.com/dgnsrekt/tabcore/internal/tab"
)

const shardCount = 32

// tabMap is a sharded map of tab ID to tab. Operations on IDs in different
// shards never contend; mutation of a tab's own fields is serialized by the
// tab itself, not by the shard lock.
type tabMap struct {
	seed   maphash.Seed
	shards [shardCount]tabShard
}

type tabShard struct {
	mu   sync.RWMutex
	tabs map[string]*tab.Tab
}

func newTabMap() *tabMap {
	m := &tabMap{seed: maphash.MakeSeed()}
	for i := range m.shards {
		m.shards[i].tabs = make(map[string]*tab.Tab)
	}
	return m
}

func (m *tabMap) shard(id string) *tabShard {
	return &m.shards[maphash.String(m.seed, id)%shardCount]
}

// insert stores t under id unless the id is already taken.
func (m *tabMap) insert(id string, t *tab.Tab) bool {
	s := m.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tabs[id]; exists {
		return false
	}
	s.tabs[id] = t
	return true
}

func (m *tabMap) load(id string) (*tab.Tab, bool) {
	s := m.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tabs[id]
	return t, ok
}

// remove deletes id and returns the tab that was stored. Only one caller
// ever receives a given tab.
func (m *tabMap) remove(id string) (*tab.Tab, bool) {
	s := m.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[id]
	if ok {
		delete(s.tabs, id)
	}
	return t, ok
}

// snapshot returns every tab present at the time each shard was visited.
func (m *tabMap) snapshot() []*tab.Tab {
	var out []*tab.Tab
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for _, t := range s.tabs {
			out = append(out, t)
		}
		s.mu.RUnlock()
	}
	return out
}

func (m *tabMap) keys() []string {
	var out []string
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for id := range s.tabs {
			out = append(out, id)
		}
		s.mu.RUnlock()
	}
	return out
}

// anyKey returns some ID currently in the map.
func (m *tabMap) anyKey() (string, bool) {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for id := range s.tabs {
			s.mu.RUnlock()
			return id, true
		}
		s.mu.RUnlock()
	}
	return "", false
}

func (m *tabMap) len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.tabs)
		s.mu.RUnlock()
	}
	return n
}
