package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/adapter/ollama"
	"github.com/Strob0t/AgentCanvas/internal/port/reasoner"
	"github.com/Strob0t/AgentCanvas/internal/resilience"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["model"] != "llama3.2" || body["stream"] != false {
			t.Fatalf("unexpected body: %v", body)
		}
		opts, _ := body["options"].(map[string]any)
		if opts["temperature"] != 0.1 || opts["top_p"] != 0.9 {
			t.Fatalf("unexpected options: %v", opts)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": "llama3.2", "response": "send_task to search", "done": true})
	}))
	defer srv.Close()

	client := ollama.NewClient(srv.URL+"/", "llama3.2", time.Second)
	got, err := client.Generate(context.Background(), "hi", reasoner.Options{Temperature: 0.1, TopP: 0.9})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "send_task to search" {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := ollama.NewClient(srv.URL, "missing", time.Second)
	_, err := client.Generate(context.Background(), "hi", reasoner.Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "ollama API error 404") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2","size":2019393189},{"name":"qwen2.5","size":1}]}`))
	}))
	defer srv.Close()

	models, err := ollama.NewClient(srv.URL, "llama3.2", time.Second).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0].Name != "llama3.2" {
		t.Fatalf("unexpected models %+v", models)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	ok, err := ollama.NewClient(srv.URL, "m", time.Second).Health(context.Background())
	if !ok || err != nil {
		t.Fatalf("expected healthy, got ok=%v err=%v", ok, err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := ollama.NewClient(srv.URL, "m", time.Second)
	client.SetBreaker(resilience.NewBreaker(2, time.Minute))
	ctx := context.Background()

	for range 2 {
		if _, err := client.Generate(ctx, "x", reasoner.Options{}); err == nil {
			t.Fatal("expected server error")
		}
	}
	_, err := client.Generate(ctx, "x", reasoner.Options{})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected open breaker to short-circuit, server saw %d calls", calls)
	}
}
