package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity bounds a MemoryCache created with capacity <= 0.
const DefaultCapacity = 1000

// MemoryCache is a bounded in-process Cache. The least recently used entry
// is evicted when full, and entries expire ttl after their last Put.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](capacity, nil, ttl)}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, sessionID string) (*Entry, error) {
	data, ok := m.lru.Get(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

// Put implements Cache.
func (m *MemoryCache) Put(_ context.Context, entry *Entry) error {
	data, err := encode(entry)
	if err != nil {
		return err
	}
	m.lru.Add(entry.SessionID, data)
	return nil
}

// Delete implements Cache.
func (m *MemoryCache) Delete(_ context.Context, sessionID string) error {
	m.lru.Remove(sessionID)
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}
