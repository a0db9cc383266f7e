package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents", http.NoBody)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	h := rl.Handler(okHandler())

	for i := range 10 {
		if rec := hit(h, "192.168.1.1:5000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	h := rl.Handler(okHandler())

	for range 5 {
		hit(h, "192.168.1.1:5000")
	}

	rec := hit(h, "192.168.1.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(10, 2)
	h := rl.Handler(okHandler())

	for range 2 {
		hit(h, "10.0.0.1:1")
	}
	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.2:1"); rec.Code != http.StatusOK {
		t.Errorf("10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Unix(1000, 0)
	rl.now = func() time.Time { return clock }
	h := rl.Handler(okHandler())

	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusOK {
		t.Fatalf("first: expected 200, got %d", rec.Code)
	}
	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: expected 429, got %d", rec.Code)
	}
	clock = clock.Add(2 * time.Second)
	if rec := hit(h, "10.0.0.1:1"); rec.Code != http.StatusOK {
		t.Fatalf("after refill: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	clock := time.Unix(1000, 0)
	rl.now = func() time.Time { return clock }
	h := rl.Handler(okHandler())

	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.2:1")
	if rl.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", rl.Len())
	}

	clock = clock.Add(time.Hour)
	rl.evict(10 * time.Minute)
	if rl.Len() != 0 {
		t.Errorf("expected idle buckets evicted, got %d", rl.Len())
	}
}
