package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// inMemoryItem is the internal structure stored in the linked list.
type inMemoryItem[V any] struct {
	key   string
	entry Entry[V]
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*inMemoryOptions)

type inMemoryOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) InMemoryOption {
	return func(o *inMemoryOptions) {
		o.now = now
	}
}

// InMemoryStore is a generic, thread-safe, in-memory Store with per-entry TTL
// and an optional size limit enforced by Least Recently Used (LRU) eviction.
// It is primarily intended for single-instance deployments and tests.
type InMemoryStore[V any] struct {
	maxEntries int
	now        func() time.Time

	mu    sync.Mutex
	ll    *list.List               // Used to track the order of items (recency).
	items map[string]*list.Element // Used for fast key lookups.
}

// NewInMemoryStore creates an in-memory store holding at most maxEntries
// items. A maxEntries of 0 or less means no limit.
func NewInMemoryStore[V any](maxEntries int, opts ...InMemoryOption) *InMemoryStore[V] {
	o := inMemoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &InMemoryStore[V]{
		maxEntries: maxEntries,
		now:        o.now,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Lookup retrieves an item. A hit moves the item to the front of the recency
// list; an expired item is removed and reported as a miss.
func (c *InMemoryStore[V]) Lookup(_ context.Context, key string) (V, bool, error) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return zero, false, nil
	}
	item := elem.Value.(*inMemoryItem[V])
	if item.entry.Expired(c.now()) {
		c.removeElement(elem)
		return zero, false, nil
	}
	c.ll.MoveToFront(elem)
	return item.entry.Value, true, nil
}

// Store adds or replaces an item and evicts the least recently used item if
// the store is over capacity.
func (c *InMemoryStore[V]) Store(_ context.Context, key string, value V, ttl time.Duration) error {
	entry := NewEntry(value, c.now(), ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*inMemoryItem[V]).entry = entry
		c.ll.MoveToFront(elem)
		return nil
	}

	c.items[key] = c.ll.PushFront(&inMemoryItem[V]{key: key, entry: entry})
	if c.maxEntries > 0 && c.ll.Len() > c.maxEntries {
		c.evict()
	}
	return nil
}

// Len returns the number of items held, including expired ones not yet
// removed.
func (c *InMemoryStore[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// evict removes the least recently used item from the store.
// This method is unexported and must be called within a locked mutex.
func (c *InMemoryStore[V]) evict() {
	if elem := c.ll.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *InMemoryStore[V]) removeElement(elem *list.Element) {
	item := c.ll.Remove(elem).(*inMemoryItem[V])
	delete(c.items, item.key)
}

// Close is a no-op for the in-memory store but satisfies the Store interface.
func (c *InMemoryStore[V]) Close() error {
	return nil
}
