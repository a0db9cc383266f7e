package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/adapter/ristretto"
	"github.com/Strob0t/AgentCanvas/internal/adapter/tiered"
	"github.com/Strob0t/AgentCanvas/internal/port/cache"
)

type card struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// runCompliance checks the behavior discovery relies on from any Cache.
func runCompliance(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("store and load card", func(t *testing.T) {
		want := card{Name: "ollama_host_agent", URL: "http://localhost:12001"}
		if err := cache.SetJSON(ctx, c, "card:http://localhost:12001", want, time.Minute); err != nil {
			t.Fatal(err)
		}
		got, ok, err := cache.GetJSON[card](ctx, c, "card:http://localhost:12001")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	})

	t.Run("miss", func(t *testing.T) {
		_, ok, err := cache.GetJSON[card](ctx, c, "card:http://localhost:1")
		if err != nil || ok {
			t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("replace", func(t *testing.T) {
		key := "card:http://localhost:11001"
		_ = cache.SetJSON(ctx, c, key, card{Name: "old"}, time.Minute)
		_ = cache.SetJSON(ctx, c, key, card{Name: "ollama_simple_search_agent"}, time.Minute)
		got, ok, _ := cache.GetJSON[card](ctx, c, key)
		if !ok || got.Name != "ollama_simple_search_agent" {
			t.Fatalf("expected replaced card, got %+v ok=%v", got, ok)
		}
	})

	t.Run("delete", func(t *testing.T) {
		key := "card:http://gone:1"
		_ = c.Set(ctx, key, []byte(`{}`), time.Minute)
		if err := c.Delete(ctx, key); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := c.Get(ctx, key); ok {
			t.Fatal("expected miss after Delete")
		}
		if err := c.Delete(ctx, "card:never"); err != nil {
			t.Fatalf("deleting a missing key should not error: %v", err)
		}
	})

	t.Run("corrupt value evicted", func(t *testing.T) {
		key := "card:http://broken:1"
		_ = c.Set(ctx, key, []byte("not json"), time.Minute)
		if _, ok, err := cache.GetJSON[card](ctx, c, key); ok || err == nil {
			t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
		}
		if _, ok, _ := c.Get(ctx, key); ok {
			t.Fatal("expected corrupt value removed")
		}
	})
}

func TestRistrettoCompliance(t *testing.T) {
	c, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	runCompliance(t, c)
}

func TestTieredCompliance(t *testing.T) {
	l1, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer l1.Close()
	l2, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()
	runCompliance(t, tiered.New(l1, l2, time.Minute))
}
