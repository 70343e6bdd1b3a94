package api

import (
	"sync"
	"time"
)

// ttlCache holds a single value until ttl has passed since it was stored.
type ttlCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	value   T
	expires time.Time
	ok      bool
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{ttl: ttl, now: time.Now}
}

func (c *ttlCache[T]) get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ok || !c.now().Before(c.expires) {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *ttlCache[T]) set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	c.expires = c.now().Add(c.ttl)
	c.ok = true
}
