package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
)

// Inbound message types observers may send.
const (
	CmdAddAgent            = "add_agent"
	CmdUpdateAgent         = "update_agent"
	CmdRemoveAgent         = "remove_agent"
	CmdCanvasAction        = "canvas_action"
	CmdQueryAgents         = "query_agents"
	CmdClearAgentLayer     = "clear_agent_layer"
	CmdModificationRequest = "modification_request"
	CmdDiscoverAgents      = "discover_agents"
)

// Commands is the coordinator surface driven by observer messages. Each
// method broadcasts its own resulting events.
type Commands interface {
	AddAgent(ctx context.Context, d agent.Descriptor) (agent.Descriptor, error)
	UpdateAgent(ctx context.Context, id string, u agent.Update) (agent.Descriptor, error)
	RemoveAgent(ctx context.Context, id string) error
	RecordCanvasAction(ctx context.Context, a canvas.Action) (canvas.Action, error)
	QueryAgents(ctx context.Context, query string) error
	ClearAgentLayer(ctx context.Context, agentID string) error
	RequestModification(ctx context.Context, req canvas.ModificationRequest) error
	DiscoverAgents(ctx context.Context) ([]agent.Descriptor, error)
}

// inbound is the union of all observer message shapes.
type inbound struct {
	Type    string          `json:"type"`
	Agent   json.RawMessage `json:"agent,omitempty"`
	AgentID string          `json:"agent_id,omitempty"`
	Action  *inboundAction  `json:"action,omitempty"`
	Query   string          `json:"query,omitempty"`
	Request json.RawMessage `json:"request,omitempty"`
}

type inboundAction struct {
	AgentID    string          `json:"agent_id"`
	ActionType string          `json:"action_type"`
	Data       map[string]any  `json:"data"`
	Timestamp  json.RawMessage `json:"timestamp,omitempty"`
}

type inboundAgent struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Color       *string  `json:"color"`
	Tools       []string `json:"tools"`
	ServerURL   string   `json:"server_url"`
	IsActive    *bool    `json:"is_active"`
}

// Router decodes observer messages and dispatches them to Commands,
// replying to the sender with success or error notices.
type Router struct {
	cmds Commands
	now  func() time.Time
}

// NewRouter creates a router bound to cmds.
func NewRouter(cmds Commands) *Router {
	return &Router{cmds: cmds, now: time.Now}
}

// Handle processes one raw observer message. It matches InboundHandler.
func (rt *Router) Handle(ctx context.Context, from Replier, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		from.Reply(ctx, EventError, NoticeEvent{Message: "Invalid message: " + err.Error()})
		return
	}
	slog.Debug("ws command", "type", msg.Type)

	switch msg.Type {
	case CmdAddAgent:
		rt.addAgent(ctx, from, msg)
	case CmdUpdateAgent:
		rt.updateAgent(ctx, from, msg)
	case CmdRemoveAgent:
		rt.fail(ctx, from, "Failed to remove agent", rt.cmds.RemoveAgent(ctx, msg.AgentID))
	case CmdCanvasAction:
		rt.canvasAction(ctx, from, msg)
	case CmdQueryAgents:
		rt.fail(ctx, from, "Failed to query agents", rt.cmds.QueryAgents(ctx, msg.Query))
	case CmdClearAgentLayer:
		rt.fail(ctx, from, "Failed to clear layer", rt.cmds.ClearAgentLayer(ctx, msg.AgentID))
	case CmdModificationRequest:
		rt.modification(ctx, from, msg)
	case CmdDiscoverAgents:
		found, err := rt.cmds.DiscoverAgents(ctx)
		if rt.fail(ctx, from, "Failed to discover agents", err) {
			return
		}
		from.Reply(ctx, EventSuccess, NoticeEvent{Message: fmt.Sprintf("Discovered %d agents", len(found))})
	default:
		from.Reply(ctx, EventError, NoticeEvent{Message: "Unknown message type: " + msg.Type})
	}
}

// fail replies with an error notice when err is non-nil and reports whether
// it did.
func (rt *Router) fail(ctx context.Context, from Replier, prefix string, err error) bool {
	if err == nil {
		return false
	}
	from.Reply(ctx, EventError, NoticeEvent{Message: prefix + ": " + err.Error()})
	return true
}

func (rt *Router) addAgent(ctx context.Context, from Replier, msg inbound) {
	const prefix = "Failed to add agent"
	var in inboundAgent
	if err := decodeObject(msg.Agent, &in, "agent"); rt.fail(ctx, from, prefix, err) {
		return
	}
	d := agent.Descriptor{
		ID:        in.ID,
		Tools:     in.Tools,
		ServerURL: in.ServerURL,
		IsActive:  true,
		Source:    agent.SourceManual,
	}
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Color != nil {
		d.Color = *in.Color
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}

	added, err := rt.cmds.AddAgent(ctx, d)
	if rt.fail(ctx, from, prefix, err) {
		return
	}
	from.Reply(ctx, EventSuccess, NoticeEvent{Message: fmt.Sprintf("Agent %s added successfully", added.Name)})
}

func (rt *Router) updateAgent(ctx context.Context, from Replier, msg inbound) {
	const prefix = "Failed to update agent"
	var in inboundAgent
	if err := decodeObject(msg.Agent, &in, "agent"); rt.fail(ctx, from, prefix, err) {
		return
	}
	if in.ID == "" {
		rt.fail(ctx, from, prefix, fmt.Errorf("agent id is required"))
		return
	}
	u := agent.Update{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Tools:       in.Tools,
		IsActive:    in.IsActive,
	}
	_, err := rt.cmds.UpdateAgent(ctx, in.ID, u)
	rt.fail(ctx, from, prefix, err)
}

func (rt *Router) canvasAction(ctx context.Context, from Replier, msg inbound) {
	const prefix = "Failed to process canvas action"
	if msg.Action == nil {
		rt.fail(ctx, from, prefix, fmt.Errorf("action is required"))
		return
	}
	a := canvas.Action{
		AgentID:    msg.Action.AgentID,
		ActionType: canvas.ActionType(msg.Action.ActionType),
		Data:       msg.Action.Data,
		Timestamp:  rt.timestamp(msg.Action.Timestamp),
	}
	if a.Data == nil {
		a.Data = map[string]any{}
	}
	_, err := rt.cmds.RecordCanvasAction(ctx, a)
	rt.fail(ctx, from, prefix, err)
}

func (rt *Router) modification(ctx context.Context, from Replier, msg inbound) {
	const prefix = "Failed to process modification request"
	var req canvas.ModificationRequest
	if err := decodeObject(msg.Request, &req, "request"); rt.fail(ctx, from, prefix, err) {
		return
	}
	rt.fail(ctx, from, prefix, rt.cmds.RequestModification(ctx, req))
}

// timestamp accepts unix seconds (fractional allowed) or RFC 3339 and falls
// back to the current time.
func (rt *Router) timestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return rt.now().UTC()
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
	}
	return rt.now().UTC()
}

func decodeObject(raw json.RawMessage, dst any, field string) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%s is required", field)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}
