package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/adapter/tiered"
	"github.com/Strob0t/AgentCanvas/internal/port/cache"
)

type entry struct {
	val []byte
	ttl time.Duration
}

type memCache struct {
	data map[string]entry
	err  error
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache { return &memCache{data: make(map[string]entry)} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	e, ok := m.data[key]
	return e.val, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = entry{val: value, ttl: ttl}
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

const hostKey = "card:http://localhost:12001"

func TestTieredGet(t *testing.T) {
	tests := []struct {
		name      string
		inL1      bool
		inL2      bool
		l2Err     error
		wantFound bool
		wantFill  bool
	}{
		{name: "l1 hit", inL1: true, wantFound: true},
		{name: "l2 hit backfills l1", inL2: true, wantFound: true, wantFill: true},
		{name: "miss"},
		{name: "l2 down is a miss", l2Err: errors.New("nats: connection closed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l1, l2 := newMemCache(), newMemCache()
			if tt.inL1 {
				l1.data[hostKey] = entry{val: []byte(`{"name":"host"}`)}
			}
			if tt.inL2 {
				l2.data[hostKey] = entry{val: []byte(`{"name":"host"}`)}
			}
			l2.err = tt.l2Err
			c := tiered.New(l1, l2, 30*time.Second)

			val, found, err := c.Get(context.Background(), hostKey)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && string(val) != `{"name":"host"}` {
				t.Errorf("unexpected value %s", val)
			}
			if tt.wantFill {
				e, ok := l1.data[hostKey]
				if !ok || e.ttl != 30*time.Second {
					t.Errorf("expected backfill with l1 expiry, got %+v ok=%v", e, ok)
				}
			}
		})
	}
}

func TestTieredSetCapsL1TTL(t *testing.T) {
	tests := []struct {
		ttl, wantL1 time.Duration
	}{
		{10 * time.Second, 10 * time.Second},
		{10 * time.Minute, 30 * time.Second},
		{0, 30 * time.Second},
	}
	for _, tt := range tests {
		l1, l2 := newMemCache(), newMemCache()
		c := tiered.New(l1, l2, 30*time.Second)
		if err := c.Set(context.Background(), hostKey, []byte("v"), tt.ttl); err != nil {
			t.Fatal(err)
		}
		if got := l1.data[hostKey].ttl; got != tt.wantL1 {
			t.Errorf("ttl %v: l1 ttl = %v, want %v", tt.ttl, got, tt.wantL1)
		}
		if got := l2.data[hostKey].ttl; got != tt.ttl {
			t.Errorf("ttl %v: l2 ttl = %v, want unchanged", tt.ttl, got)
		}
	}
}

func TestTieredDeleteBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l1.data[hostKey] = entry{val: []byte("v")}
	l2.data[hostKey] = entry{val: []byte("v")}
	c := tiered.New(l1, l2, time.Minute)

	if err := c.Delete(context.Background(), hostKey); err != nil {
		t.Fatal(err)
	}
	if len(l1.data) != 0 || len(l2.data) != 0 {
		t.Errorf("expected both levels empty, l1=%d l2=%d", len(l1.data), len(l2.data))
	}
}

func TestTieredSurvivesL2Outage(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.err = errors.New("nats: connection closed")
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, hostKey, []byte("v"), time.Minute); err != nil {
		t.Fatalf("set must survive L2 failure, got %v", err)
	}
	if _, found, err := c.Get(ctx, hostKey); !found || err != nil {
		t.Fatalf("expected L1 hit, found=%v err=%v", found, err)
	}
	if err := c.Delete(ctx, hostKey); err != nil {
		t.Fatalf("delete must survive L2 failure, got %v", err)
	}
}
