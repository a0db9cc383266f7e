package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	cfmcp "github.com/Strob0t/AgentCanvas/internal/adapter/mcp"
	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
)

// --- Mocks ---

type mockAgents struct{ agents []agent.Descriptor }

func (m *mockAgents) ListAgents(context.Context) []agent.Descriptor { return m.agents }

type mockQueries struct {
	responses map[string]string
	err       error
	got       string
}

func (m *mockQueries) QueryResponses(_ context.Context, q string) (map[string]string, error) {
	m.got = q
	return m.responses, m.err
}

type mockCanvas struct{ actions []canvas.Action }

func (m *mockCanvas) CanvasActions(_ context.Context, agentID string) []canvas.Action {
	var out []canvas.Action
	for _, a := range m.actions {
		if agentID == "" || a.AgentID == agentID {
			out = append(out, a)
		}
	}
	return out
}

var (
	_ cfmcp.AgentLister  = (*mockAgents)(nil)
	_ cfmcp.QueryRunner  = (*mockQueries)(nil)
	_ cfmcp.CanvasReader = (*mockCanvas)(nil)
)

func callTool(t *testing.T, s *cfmcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	text, ok := r.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return text.Text
}

// --- Tests ---

func TestToolRegistration(t *testing.T) {
	s := cfmcp.NewServer(cfmcp.ServerConfig{Name: "test", Version: "0.1.0"}, cfmcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	for _, name := range []string{"list_agents", "query_agents", "list_canvas_actions"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
}

func TestHandleListAgents(t *testing.T) {
	deps := cfmcp.ServerDeps{Agents: &mockAgents{agents: []agent.Descriptor{
		{ID: "a1", Name: "Search", IsActive: true},
		{ID: "a2", Name: "Host"},
	}}}
	s := cfmcp.NewServer(cfmcp.ServerConfig{Version: "0.1.0"}, deps)

	result := callTool(t, s, "list_agents", nil)
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	var agents []agent.Descriptor
	if err := json.Unmarshal([]byte(resultText(t, result)), &agents); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(agents) != 2 || agents[0].ID != "a1" {
		t.Fatalf("unexpected agents %+v", agents)
	}
}

func TestHandleQueryAgents(t *testing.T) {
	q := &mockQueries{responses: map[string]string{"a1": "Paris"}}
	s := cfmcp.NewServer(cfmcp.ServerConfig{}, cfmcp.ServerDeps{Queries: q})

	result := callTool(t, s, "query_agents", map[string]any{"query": "  capital of France  "})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	if q.got != "capital of France" {
		t.Errorf("expected trimmed query, got %q", q.got)
	}
	var responses map[string]string
	if err := json.Unmarshal([]byte(resultText(t, result)), &responses); err != nil {
		t.Fatal(err)
	}
	if responses["a1"] != "Paris" {
		t.Fatalf("unexpected responses %v", responses)
	}
}

func TestHandleQueryAgentsErrors(t *testing.T) {
	tests := []struct {
		name string
		deps cfmcp.ServerDeps
		args map[string]any
	}{
		{"not configured", cfmcp.ServerDeps{}, map[string]any{"query": "q"}},
		{"missing query", cfmcp.ServerDeps{Queries: &mockQueries{}}, nil},
		{"dispatch failure", cfmcp.ServerDeps{Queries: &mockQueries{err: errors.New("boom")}}, map[string]any{"query": "q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cfmcp.NewServer(cfmcp.ServerConfig{}, tt.deps)
			if result := callTool(t, s, "query_agents", tt.args); !result.IsError {
				t.Fatal("expected tool error")
			}
		})
	}
}

func TestHandleListCanvasActionsFilter(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	deps := cfmcp.ServerDeps{Canvas: &mockCanvas{actions: []canvas.Action{
		{AgentID: "a1", ActionType: canvas.ActionDraw, Data: map[string]any{}, Timestamp: now},
		{AgentID: "a2", ActionType: canvas.ActionMermaid, Data: map[string]any{}, Timestamp: now},
	}}}
	s := cfmcp.NewServer(cfmcp.ServerConfig{}, deps)

	result := callTool(t, s, "list_canvas_actions", map[string]any{"agent_id": "a2"})
	var actions []canvas.Action
	if err := json.Unmarshal([]byte(resultText(t, result)), &actions); err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].ActionType != canvas.ActionMermaid {
		t.Fatalf("unexpected actions %+v", actions)
	}
}

func TestHandlerServesInitialize(t *testing.T) {
	s := cfmcp.NewServer(cfmcp.ServerConfig{Name: "agentcanvas", Version: "0.1.0"}, cfmcp.ServerDeps{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
