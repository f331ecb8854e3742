// Package cache sits in front of the query executor and absorbs repeated
// requests against the slow analytical engine.
//
// Information Hiding:
// - Fingerprinting of (statement, parameters) hidden
// - Recency structure and eviction policy hidden behind GetOrCompute
// - Thread-safety internalized via a single mutex
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dparolin/dommyhoops/query"
)

// Querier is the slow path invoked on a cache miss.
type Querier interface {
	Execute(ctx context.Context, statement string, params ...any) ([]query.Record, error)
}

// Stats reports cache performance counters.
type Stats struct {
	Entries  int    `json:"entries"`
	Capacity int    `json:"capacity"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

type entry struct {
	fingerprint string
	rows        []query.Record
	expiresAt   time.Time
}

// Cache is a bounded, TTL-expiring result cache with LRU eviction.
// Safe for concurrent use.
type Cache struct {
	querier  Querier
	capacity int

	mu      sync.Mutex
	entries map[string]*list.Element
	// order holds *entry values; front is least recently used.
	order  *list.List
	hits   uint64
	misses uint64

	// now is swappable for expiry tests.
	now func() time.Time
}

// DefaultCapacity bounds the cache when no explicit capacity is given.
const DefaultCapacity = 256

// New creates a cache over the given querier.
func New(querier Querier, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		querier:  querier,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// GetOrCompute returns the cached rows for (statement, params) if a live
// entry exists, otherwise runs the query and caches the result for ttl.
// A hit refreshes the entry's recency; an expired entry is evicted and
// treated as a miss. Failed queries are never cached.
func (c *Cache) GetOrCompute(ctx context.Context, statement string, params []any, ttl time.Duration) ([]query.Record, error) {
	fp := Fingerprint(statement, params)

	c.mu.Lock()
	if elem, ok := c.entries[fp]; ok {
		ent := elem.Value.(*entry)
		if c.now().Before(ent.expiresAt) {
			c.order.MoveToBack(elem)
			c.hits++
			rows := ent.rows
			c.mu.Unlock()
			return rows, nil
		}
		c.order.Remove(elem)
		delete(c.entries, fp)
	}
	c.misses++
	c.mu.Unlock()

	// The engine call runs outside the lock so a slow query does not block
	// hits on other fingerprints. Concurrent misses on the same fingerprint
	// may each hit the engine once; the last insert wins.
	rows, err := c.querier.Execute(ctx, statement, params...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.insertLocked(fp, rows, ttl)
	c.mu.Unlock()

	return rows, nil
}

func (c *Cache) insertLocked(fp string, rows []query.Record, ttl time.Duration) {
	ent := &entry{fingerprint: fp, rows: rows, expiresAt: c.now().Add(ttl)}

	if elem, ok := c.entries[fp]; ok {
		elem.Value = ent
		c.order.MoveToBack(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).fingerprint)
		}
	}
	c.entries[fp] = c.order.PushBack(ent)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:  c.order.Len(),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

// Fingerprint derives the stable cache key for a statement and its bound
// parameters. Parameter order is significant.
func Fingerprint(statement string, params []any) string {
	if len(params) == 0 {
		return statement
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		// Parameters are primitives bound into SQL; marshaling them cannot
		// realistically fail, but fall back to a distinct non-colliding key.
		encoded = []byte(fmt.Sprintf("%#v", params))
	}
	return statement + "\x1f" + string(encoded)
}
