// Package mcp exposes the coordinator to MCP clients over streamable HTTP.
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
)

// AgentLister reads the agent registry.
type AgentLister interface {
	ListAgents(ctx context.Context) []agent.Descriptor
}

// QueryRunner fans a query out to every active agent and returns the
// aggregated text keyed by agent id.
type QueryRunner interface {
	QueryResponses(ctx context.Context, query string) (map[string]string, error)
}

// CanvasReader reads the canvas action log. An empty agentID returns all
// actions.
type CanvasReader interface {
	CanvasActions(ctx context.Context, agentID string) []canvas.Action
}

// ServerConfig names the server in the MCP handshake.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps are the coordinator capabilities exposed as tools. Nil
// dependencies yield tool errors rather than panics.
type ServerDeps struct {
	Agents  AgentLister
	Queries QueryRunner
	Canvas  CanvasReader
}

// Server wraps an mcp-go server.
type Server struct {
	mcpServer *mcpserver.MCPServer
	deps      ServerDeps
}

// NewServer creates the server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if cfg.Name == "" {
		cfg.Name = "agentcanvas"
	}
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
		deps: deps,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Handler serves the streamable HTTP transport; mount it at /mcp.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer, mcpserver.WithStateLess(true))
}
