package cache

import (
	"container/list"
	"context"
	"slices"
	"sync"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/pkg/metrics"
)

const defaultMaxEntries = 10000

// Memory is a bounded in-process cache that evicts the oldest entry when full.
type Memory struct {
	mu         sync.Mutex
	entries    map[Key]*list.Element
	order      *list.List // front = newest
	bySite     map[string]map[Key]struct{}
	maxEntries int
}

type memoryEntry struct {
	key   Key
	score model.CompositeScore
}

// NewMemory creates an empty memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:    make(map[Key]*list.Element),
		order:      list.New(),
		bySite:     make(map[string]map[Key]struct{}),
		maxEntries: defaultMaxEntries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Cache.
func (m *Memory) Name() string { return "memory" }

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key Key) (model.CompositeScore, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		metrics.RecordCacheMiss(m.Name())
		return model.CompositeScore{}, false, nil
	}
	metrics.RecordCacheHit(m.Name())
	return cloneScore(el.Value.(*memoryEntry).score), true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key Key, score model.CompositeScore) error {
	score = cloneScore(score)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		el.Value.(*memoryEntry).score = score
		m.order.MoveToFront(el)
		return nil
	}

	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}
	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, score: score})
	site := m.bySite[key.SiteID]
	if site == nil {
		site = make(map[Key]struct{})
		m.bySite[key.SiteID] = site
	}
	site[key] = struct{}{}
	return nil
}

// Invalidate implements Cache.
func (m *Memory) Invalidate(_ context.Context, siteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.bySite[siteID] {
		if el, ok := m.entries[key]; ok {
			m.order.Remove(el)
			delete(m.entries, key)
		}
	}
	delete(m.bySite, siteID)
	metrics.RecordCacheInvalidation(m.Name())
	return nil
}

// Len returns the number of cached scores.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close implements Cache.
func (m *Memory) Close() error { return nil }

// evictOldest must be called with m.mu held.
func (m *Memory) evictOldest() {
	el := m.order.Back()
	if el == nil {
		return
	}
	key := el.Value.(*memoryEntry).key
	m.order.Remove(el)
	delete(m.entries, key)
	if site := m.bySite[key.SiteID]; site != nil {
		delete(site, key)
		if len(site) == 0 {
			delete(m.bySite, key.SiteID)
		}
	}
}

// cloneScore copies the slices so callers never share them with the cache.
func cloneScore(s model.CompositeScore) model.CompositeScore {
	s.Categories = slices.Clone(s.Categories)
	s.Warnings = slices.Clone(s.Warnings)
	return s
}
