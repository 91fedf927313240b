// Package resilience wraps provider calls with a TTL response cache and a
// bounded exponential-backoff retry.
package resilience

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a settled response stays fresh.
const DefaultTTL = time.Hour

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type entry struct {
	timestamp time.Time
	value     any
	err       error
}

// Cache maps call keys to settled outcomes (value or error). Entries expire
// after the TTL and are never evicted for size.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
}

type CacheOption func(*Cache)

func WithClock(c Clock) CacheOption {
	return func(cache *Cache) { cache.clock = c }
}

// NewCache returns an empty cache. A non-positive ttl selects DefaultTTL.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		clock:   systemClock{},
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored outcome for key while it is fresh. Expired entries
// are dropped.
func (c *Cache) Get(key string) (any, error, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, nil, false
	}
	if c.clock.Now().Sub(e.timestamp) >= c.ttl {
		delete(c.entries, key)
		return nil, nil, false
	}
	return e.value, e.err, true
}

// Put stores an outcome stamped with the current time.
func (c *Cache) Put(key string, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{timestamp: c.clock.Now(), value: value, err: err}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len counts stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Key hashes a call: the operation identity, the positional arguments in
// order and the named arguments sorted by name.
func Key(identity string, args []string, kwargs map[string]string) string {
	var b strings.Builder
	b.WriteString(identity)
	for _, a := range args {
		fmt.Fprintf(&b, "\x00a%d:%s", len(a), a)
	}
	names := make([]string, 0, len(kwargs))
	for k := range kwargs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, "\x00k%s=%d:%s", k, len(kwargs[k]), kwargs[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Memoize returns the cached outcome of key while fresh; otherwise it runs fn
// and stores whatever it settles to, failures included.
func Memoize[T any](c *Cache, key string, fn func() (T, error)) (T, error) {
	if v, err, ok := c.Get(key); ok {
		typed, _ := v.(T)
		return typed, err
	}
	v, err := fn()
	c.Put(key, v, err)
	return v, err
}
