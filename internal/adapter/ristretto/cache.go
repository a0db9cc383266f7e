// Package ristretto implements the cache port using dgraph-io/ristretto as
// the in-process L1 for agent cards.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const minSizeBytes = 1 << 20

// Cache wraps a ristretto cache as an in-process L1 cache.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a cache holding at most sizeMB megabytes of values.
func New(sizeMB int64) (*Cache, error) {
	maxCost := sizeMB << 20
	if maxCost < minSizeBytes {
		maxCost = minSizeBytes
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCost / 1024 * 10, // cards are roughly 1 KiB
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value with the given TTL. The write is visible to the next
// Get; a non-positive ttl keeps the entry until evicted.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 {
		c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	} else {
		c.c.Set(key, value, int64(len(value)))
	}
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
