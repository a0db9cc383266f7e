package mcp

import (
	"context"
	"encoding/json"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listAgentsTool(),
		s.queryAgentsTool(),
		s.listCanvasActionsTool(),
	)
}

func (s *Server) listAgentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_agents",
		mcplib.WithDescription("List all agents registered with the coordinator"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListAgents}
}

func (s *Server) queryAgentsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("query_agents",
		mcplib.WithDescription("Send a query to every active agent and return each agent's response"),
		mcplib.WithString("query",
			mcplib.Required(),
			mcplib.Description("The text to send to the agents"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleQueryAgents}
}

func (s *Server) listCanvasActionsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_canvas_actions",
		mcplib.WithDescription("List canvas actions, optionally for a single agent"),
		mcplib.WithString("agent_id",
			mcplib.Description("Only return actions from this agent"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListCanvasActions}
}

func (s *Server) handleListAgents(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Agents == nil {
		return mcplib.NewToolResultError("agent registry not configured"), nil
	}
	return jsonResult(s.deps.Agents.ListAgents(ctx), "agents")
}

func (s *Server) handleQueryAgents(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Queries == nil {
		return mcplib.NewToolResultError("query runner not configured"), nil
	}
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcplib.NewToolResultError("query is required"), nil
	}
	responses, err := s.deps.Queries.QueryResponses(ctx, query)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to query agents", err), nil
	}
	return jsonResult(responses, "responses")
}

func (s *Server) handleListCanvasActions(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Canvas == nil {
		return mcplib.NewToolResultError("canvas log not configured"), nil
	}
	return jsonResult(s.deps.Canvas.CanvasActions(ctx, req.GetString("agent_id", "")), "canvas actions")
}

func jsonResult(v any, what string) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal "+what, err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
