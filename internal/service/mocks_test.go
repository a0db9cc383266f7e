package service

import (
	"context"
	"sync"

	"github.com/Strob0t/AgentCanvas/internal/domain/task"
	"github.com/Strob0t/AgentCanvas/internal/port/a2a"
	"github.com/Strob0t/AgentCanvas/internal/port/broadcast"
)

var (
	_ broadcast.Broadcaster = (*mockBroadcaster)(nil)
	_ a2a.Connection        = (*fakeConnection)(nil)
	_ a2a.CardFetcher       = (*fakeFetcher)(nil)
)

type recordedEvent struct {
	eventType string
	payload   any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{eventType, payload})
}

func (m *mockBroadcaster) snapshot() []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedEvent(nil), m.events...)
}

func (m *mockBroadcaster) types() []string {
	var out []string
	for _, e := range m.snapshot() {
		out = append(out, e.eventType)
	}
	return out
}

// fakeConnection answers every task with respond.
type fakeConnection struct {
	base    string
	respond func(ctx context.Context, env task.Envelope) (*task.Result, error)

	mu   sync.Mutex
	sent []task.Envelope
}

func (c *fakeConnection) SendTask(ctx context.Context, env task.Envelope) (*task.Result, error) {
	c.mu.Lock()
	c.sent = append(c.sent, env)
	c.mu.Unlock()
	return c.respond(ctx, env)
}

func (c *fakeConnection) BaseURL() string { return c.base }

func (c *fakeConnection) calls() []task.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]task.Envelope(nil), c.sent...)
}

// replyWith answers with state and parts.
func replyWith(state task.State, parts ...task.Part) func(context.Context, task.Envelope) (*task.Result, error) {
	return func(_ context.Context, env task.Envelope) (*task.Result, error) {
		return task.NewResult(env, state, parts...), nil
	}
}

// connections hands out preconfigured connections by address.
type connections map[string]*fakeConnection

func (cs connections) dial(baseURL string) a2a.Connection {
	if c, ok := cs[baseURL]; ok {
		return c
	}
	return &fakeConnection{base: baseURL, respond: replyWith(task.StateCompleted)}
}

type fakeFetcher struct {
	mu    sync.Mutex
	cards map[string]*a2a.AgentCard
	hits  map[string]int
}

func newFakeFetcher(cards map[string]*a2a.AgentCard) *fakeFetcher {
	return &fakeFetcher{cards: cards, hits: make(map[string]int)}
}

func (f *fakeFetcher) FetchCard(_ context.Context, baseURL string) (*a2a.AgentCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[baseURL]++
	if c, ok := f.cards[baseURL]; ok {
		return c, nil
	}
	return nil, context.DeadlineExceeded
}

func (f *fakeFetcher) count(baseURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[baseURL]
}
