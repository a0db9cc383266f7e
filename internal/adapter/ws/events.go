package ws

import (
	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
)

// Event type constants for WebSocket messages sent to observers.
const (
	EventAgentAdded          = "agent_added"
	EventAgentUpdated        = "agent_updated"
	EventAgentRemoved        = "agent_removed"
	EventCanvasAction        = "canvas_action"
	EventAgentResponses      = "agent_responses"
	EventLayerCleared        = "layer_cleared"
	EventModificationRequest = "modification_request"
	EventError               = "error"
	EventSuccess             = "success"
)

// AgentEvent is broadcast when an agent is added or updated.
type AgentEvent struct {
	Agent agent.Descriptor `json:"agent"`
}

// AgentRemovedEvent is broadcast when an agent leaves the registry.
type AgentRemovedEvent struct {
	AgentID string `json:"agent_id"`
}

// CanvasActionEvent carries one accepted canvas action.
type CanvasActionEvent struct {
	Action canvas.Action `json:"action"`
}

// AgentResponsesEvent carries the aggregated text of one query, keyed by
// agent id.
type AgentResponsesEvent struct {
	Query     string            `json:"query"`
	Responses map[string]string `json:"responses"`
}

// LayerClearedEvent is broadcast when an agent's canvas actions are dropped.
type LayerClearedEvent struct {
	AgentID string `json:"agent_id"`
}

// ModificationRequestEvent relays a modification request.
type ModificationRequestEvent struct {
	Request canvas.ModificationRequest `json:"request"`
}

// NoticeEvent is the payload of error and success replies.
type NoticeEvent struct {
	Message string `json:"message"`
}
