// Package tiered layers the in-process card cache over the shared NATS KV
// bucket.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/port/cache"
)

// Cache reads L1 then L2, backfilling L1 on an L2 hit, and writes both.
// L2 errors are logged and treated as misses so discovery keeps working on
// L1 alone when NATS is down.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

var _ cache.Cache = (*Cache)(nil)

// New creates a tiered cache. l1Expire caps how long any entry lives in L1,
// so cards changed by another coordinator are picked up from L2 within that
// window.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

func (c *Cache) l1TTL(ttl time.Duration) time.Duration {
	if c.l1Expire > 0 && (ttl <= 0 || ttl > c.l1Expire) {
		return c.l1Expire
	}
	return ttl
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	if val, found, err := c.l1.Get(ctx, key); err != nil || found {
		return val, found, err
	}

	val, found, err := c.l2.Get(ctx, key)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "l2 cache get failed", "key", key, "error", err)
		return nil, false, nil
	case !found:
		return nil, false, nil
	}
	if err := c.l1.Set(ctx, key, val, c.l1TTL(0)); err != nil {
		slog.DebugContext(ctx, "l1 backfill failed", "key", key, "error", err)
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, c.l1TTL(ttl)); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if err := c.l2.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "l2 cache delete failed", "key", key, "error", err)
	}
	return nil
}
