package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	resourceAgents = "agentcanvas://agents"
	resourceCanvas = "agentcanvas://canvas/actions"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(resourceAgents, "Agents",
			mcplib.WithResourceDescription("Registered agents"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentsResource,
	)
	s.mcpServer.AddResource(
		mcplib.NewResource(resourceCanvas, "Canvas Actions",
			mcplib.WithResourceDescription("All canvas actions in arrival order"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCanvasResource,
	)
}

func (s *Server) handleAgentsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Agents == nil {
		return jsonContents(req.Params.URI, map[string]string{"error": "agent registry not configured"})
	}
	return jsonContents(req.Params.URI, s.deps.Agents.ListAgents(ctx))
}

func (s *Server) handleCanvasResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Canvas == nil {
		return jsonContents(req.Params.URI, map[string]string{"error": "canvas log not configured"})
	}
	return jsonContents(req.Params.URI, s.deps.Canvas.CanvasActions(ctx, ""))
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
